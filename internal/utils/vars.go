package utils

import (
	"time"
)

const (
	DefaultChunkSize       = 32 * 1024
	DefaultResponseTimeout = 10 * time.Second
	DefaultKATimeout       = 90 * time.Second
	DefaultMaxDuration     = 60 * time.Second
	DefaultSampleWindow    = 2 * time.Second
	DefaultSampleCapacity  = 64
	DefaultRedrawInterval  = 100 * time.Millisecond
	LargeSocketBufferSize  = 4 * 1024 * 1024
	LogFile                = ".dlspeed.log"
)

const ToolUserAgent = "dlspeed/1.0"

// Local-only User-Agent list used by --user-agent randomize
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15",
	"curl/8.5.0",
	"Wget/1.21.4",
}
