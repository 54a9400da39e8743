package instance

import (
	"fmt"
	"os"
)

// GetID returns the process instance identifier. MALLRENT_INSTANCE_ID wins,
// otherwise hostname and pid are combined so two replicas never collide.
func GetID() string {
	if id := os.Getenv("MALLRENT_INSTANCE_ID"); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "mallrent"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
