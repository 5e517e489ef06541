package temporalx

import (
	"context"
	"os"
	"strings"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
)

// NewClient dials Temporal using TEMPORAL_ADDRESS and TEMPORAL_NAMESPACE.
// Returns (nil, nil) when no address is configured; the caller treats a
// nil client as "scheduled retraining disabled".
func NewClient(log *logger.Logger) (temporalsdkclient.Client, error) {
	address := strings.TrimSpace(os.Getenv("TEMPORAL_ADDRESS"))
	if address == "" {
		if log != nil {
			log.Warn("TEMPORAL_ADDRESS not set; Temporal disabled")
		}
		return nil, nil
	}
	namespace := strings.TrimSpace(os.Getenv("TEMPORAL_NAMESPACE"))
	if namespace == "" {
		namespace = "default"
	}

	opts := temporalsdkclient.Options{
		HostPort:  address,
		Namespace: namespace,
		Logger:    log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return temporalsdkclient.DialContext(ctx, opts)
}
