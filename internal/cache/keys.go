package cache

import "fmt"

func StatusKey(candidateID string) string {
	return fmt.Sprintf("candidate:status:%s", candidateID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
