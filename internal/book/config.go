package book

const (
	DefaultAddress    = ":8001"
	DefaultContentDir = "02-parts"
	DefaultStaticDir  = "static"

	// DefaultLanding is the first lesson of the book.
	DefaultLanding = "/book/01-Part-I-Foundations/01-Chapter-Physical-AI/01-Intro"
)

type Config struct {
	Address    string `yaml:"address" envconfig:"BOOK_ADDRESS"`
	ContentDir string `yaml:"content_dir" envconfig:"BOOK_CONTENT_DIR"`
	StaticDir  string `yaml:"static_dir" envconfig:"BOOK_STATIC_DIR"`

	// TemplateFile replaces the embedded page template when set.
	TemplateFile string `yaml:"template_file" envconfig:"BOOK_TEMPLATE_FILE"`

	Landing string `yaml:"landing" envconfig:"BOOK_LANDING"`
}

func DefaultConfig() Config {
	return Config{
		Address:    DefaultAddress,
		ContentDir: DefaultContentDir,
		StaticDir:  DefaultStaticDir,
		Landing:    DefaultLanding,
	}
}
