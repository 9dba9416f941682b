package qdrant

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// parseEndpoint accepts a bare host, a host:port pair or a URL and returns
// the host name and whether the scheme asks for TLS. Any port is dropped
// because it usually refers to the REST port; the gRPC port comes from
// Config.Port.
func parseEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		host := strings.TrimSuffix(endpoint, "/")
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if host == "" {
			return "", false, errors.New("missing host")
		}
		return host, false, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, err
	}
	if u.Hostname() == "" {
		return "", false, errors.New("missing host")
	}
	return u.Hostname(), u.Scheme == "https", nil
}

func validateSearchInput(vector []float32, limit int) error {
	if len(vector) == 0 {
		return fmt.Errorf("[Qdrant] search vector cannot be empty")
	}
	if limit <= 0 {
		return fmt.Errorf("[Qdrant] search limit must be positive, got %d", limit)
	}
	return nil
}

func toPointID(id string) (*qdrant.PointId, error) {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdrant.NewIDNum(n), nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("[Qdrant] point id %q is neither a uuid nor an unsigned integer", id)
	}
	return qdrant.NewIDUUID(id), nil
}

func pointIDString(id *qdrant.PointId) (string, error) {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Num:
		return strconv.FormatUint(v.Num, 10), nil
	case *qdrant.PointId_Uuid:
		return v.Uuid, nil
	default:
		return "", fmt.Errorf("[Qdrant] unexpected PointId type: %T", v)
	}
}

// payloadToMap flattens a Qdrant payload into plain Go values.
// Nested structs and lists are not produced by this module and are skipped.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		switch kind := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			out[k] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			out[k] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[k] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			out[k] = kind.BoolValue
		case *qdrant.Value_NullValue:
			out[k] = nil
		}
	}
	return out
}
