package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"cubecheck.ai/internal/persistence/mirror"
)

// openArchiveMirror returns nil unless CC_MIRROR is set.
func openArchiveMirror(dataDir string, logger *log.Logger) (*mirror.Mirror, error) {
	if !envBool("CC_MIRROR", false) {
		return nil, nil
	}
	cfg := mirror.ClientConfig{
		Endpoint:  os.Getenv("CC_MIRROR_ENDPOINT"),
		Bucket:    os.Getenv("CC_MIRROR_BUCKET"),
		Region:    os.Getenv("CC_MIRROR_REGION"),
		AccessKey: os.Getenv("CC_MIRROR_ACCESS_KEY_ID"),
		SecretKey: os.Getenv("CC_MIRROR_SECRET_ACCESS_KEY"),
	}
	client, err := mirror.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("CC_MIRROR=true: %w", err)
	}
	prefix := strings.TrimSpace(os.Getenv("CC_MIRROR_PREFIX"))
	return mirror.New(client, dataDir, prefix, envInt("CC_MIRROR_WORKERS", 2), logger), nil
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
