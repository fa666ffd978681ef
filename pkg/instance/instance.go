package instance

import "os"

// GetID names the running replica for log fields. Platform variables win
// over the hostname; "local" is the last resort.
func GetID() string {
	for _, key := range []string{"WORKER_ID", "DYNO", "K_REVISION", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
