// logger.go
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
)

// Leveled logging helpers with clear prefixes. Debug output is gated behind
// LOG_LEVEL=debug so production logs stay readable.

var debugEnabled = strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug")

func LogError(format string, args ...interface{}) {
	log.Printf("❌ "+format, args...)
}

func LogWarn(format string, args ...interface{}) {
	log.Printf("⚠️ "+format, args...)
}

func LogInfo(format string, args ...interface{}) {
	log.Printf(format, args...)
}

func LogDebug(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("🔍 "+format, args...)
	}
}

// generateRequestID returns a short identifier for correlating all log lines
// produced while handling one webhook delivery.
func generateRequestID() string {
	return fmt.Sprintf("req-%06d", rand.Intn(1_000_000))
}
