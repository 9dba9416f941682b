// Package minio stores and serves book source files from an S3-compatible
// bucket through minio-go.
//
// The ingest pipeline can read markdown sources from a bucket prefix instead
// of the local docs directory, and the "upload" command copies a local book
// tree into the bucket.
//
// # Basic Usage
//
//	store, err := minio.NewClient(minio.Config{
//		Connection: minio.ConnectionConfig{
//			Endpoint:        "localhost:9000",
//			AccessKeyID:     "minioadmin",
//			SecretAccessKey: "minioadmin",
//			BucketName:      "book",
//			CreateBucket:    true,
//		},
//	}, log)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
// # Listing and Reading Sources
//
// List walks the prefix recursively and keeps keys ending in one of the
// suffixes.
//
//	objects, err := store.List(ctx, "docs/", ".md", ".mdx")
//	if err != nil {
//		return err
//	}
//	for _, obj := range objects {
//		data, err := store.Get(ctx, obj.Key)
//		if err != nil {
//			log.Warn("skipping object", err, map[string]interface{}{"key": obj.Key})
//			continue
//		}
//		chunks := c.Split(string(data), obj.Key)
//		// ...
//	}
//
// Get reads small objects into an exactly sized slice and larger ones
// through a pooled buffer. Objects above DownloadConfig.MaxObjectSize are
// rejected.
//
// # Uploading
//
//	f, err := os.Open("docs/Part-I-Foundations/intro.md")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	st, _ := f.Stat()
//	n, err := store.Put(ctx, "docs/Part-I-Foundations/intro.md", f, st.Size(), "text/markdown")
//
// # Configuration
//
//	MINIO_ENDPOINT=localhost:9000
//	MINIO_ACCESS_KEY_ID=minioadmin
//	MINIO_SECRET_ACCESS_KEY=minioadmin
//	MINIO_BUCKET=book
//	MINIO_USE_SSL=false
//	MINIO_CREATE_BUCKET=true
//
// # FX Module Integration
//
//	app := fx.New(
//		fx.Supply(cfg.Minio),
//		minio.FXModule,
//	)
//
// FXModule provides *Minio and starts a monitor that checks the bucket every
// 30 seconds and rebuilds the client when the check fails.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
package minio
