package config

import (
	"bufio"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var dotEnvOnce sync.Once

// loadDotEnv loads simple KEY=VALUE lines from .env if present.
// Existing environment variables take precedence and are not overwritten.
func loadDotEnv() {
	dotEnvOnce.Do(func() {
		readDotEnv(".env")
	})
}

func readDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		val := strings.TrimSpace(line[i+1:])
		if val == "" || key == "" {
			continue
		}
		if (strings.HasPrefix(val, "\"") && strings.HasSuffix(val, "\"")) || (strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'")) {
			val = val[1 : len(val)-1]
		}
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
}

// detectReachableBaseURL keeps initial when it answers, otherwise tries the
// usual local ports the backend is started on.
func detectReachableBaseURL(initial string) string {
	start := time.Now()
	if reachable(initial) {
		return initial
	}

	candidates := []string{}
	if u, err := url.Parse(initial); err == nil {
		port := u.Port()
		if port == "" {
			port = "8080"
		}
		for _, p := range []string{port, "8080", "8082", "8083"} {
			candidates = append(candidates, "http://localhost:"+p)
		}
	}

	seen := map[string]struct{}{initial: {}}
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		if reachable(c) {
			log.Info().Str("from", initial).Str("to", c).Dur("took", time.Since(start)).Msg("base url autodetect switched")
			return c
		}
	}
	log.Warn().Str("base_url", initial).Dur("took", time.Since(start)).Msg("base url autodetect found no reachable candidate")
	return initial
}

func reachable(base string) bool {
	u, err := url.Parse(base)
	if err != nil {
		return false
	}
	host := u.Host
	if !strings.Contains(host, ":") {
		host += ":80"
	}
	d := net.Dialer{Timeout: 250 * time.Millisecond}
	conn, err := d.Dial("tcp", host)
	if err != nil {
		return false
	}
	_ = conn.Close()

	client := &http.Client{Timeout: 800 * time.Millisecond}
	for _, path := range []string{"/public/config", "/"} {
		resp, err := client.Get(base + path)
		if err == nil {
			_ = resp.Body.Close()
			return true
		}
	}
	return false
}
