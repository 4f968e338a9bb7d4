// Package urllist turns CLI arguments and URL list files into requests.
//
// Text lists hold one request per line, either "URL" or "METHOD URL". Blank
// lines and lines starting with "#" or "//" are skipped. YAML lists (.yaml or
// .yml) hold a sequence, optionally under a top-level "urls" key, whose items
// are either a URL string or a mapping with "method" and "url" ("link" is
// accepted as an alias of "url").
package urllist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/dlspeed/internal/utils"
	"gopkg.in/yaml.v3"
)

var supportedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"s3":    true,
}

// FromArgs builds GET requests from positional arguments.
func FromArgs(args []string) ([]utils.Request, error) {
	requests := make([]utils.Request, 0, len(args))
	for i, arg := range args {
		if err := ValidateURL(arg); err != nil {
			return nil, &utils.ConfigError{Source: fmt.Sprintf("argument %d", i+1), Err: err}
		}
		requests = append(requests, utils.Request{Method: http.MethodGet, URL: arg})
	}
	if len(requests) == 0 {
		return nil, &utils.ConfigError{Err: utils.ErrNoRequests}
	}
	return requests, nil
}

// ReadFile loads a text or YAML list depending on the file extension.
func ReadFile(path string) ([]utils.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &utils.ConfigError{Source: path, Err: err}
	}
	var requests []utils.Request
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		requests, err = ParseYAML(data, path)
	default:
		requests, err = Parse(strings.NewReader(string(data)), path)
	}
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, &utils.ConfigError{Source: path, Err: utils.ErrNoRequests}
	}
	log.Debug().Str("op", "urllist").Str("file", path).Int("count", len(requests)).Msg("requests loaded")
	return requests, nil
}

// Parse reads the line-oriented format.
func Parse(r io.Reader, source string) ([]utils.Request, error) {
	var requests []utils.Request
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		req, err := parseLine(line)
		if err != nil {
			return nil, &utils.ConfigError{Source: source, Line: lineNum, Err: err}
		}
		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, &utils.ConfigError{Source: source, Line: lineNum + 1, Err: err}
	}
	return requests, nil
}

func parseLine(line string) (utils.Request, error) {
	fields := strings.Fields(line)
	var req utils.Request
	switch len(fields) {
	case 1:
		req = utils.Request{Method: http.MethodGet, URL: fields[0]}
	case 2:
		method, err := ParseMethod(fields[0])
		if err != nil {
			return req, err
		}
		req = utils.Request{Method: method, URL: fields[1]}
	default:
		return req, errors.New("unexpected characters after URL")
	}
	if err := ValidateURL(req.URL); err != nil {
		return req, err
	}
	return req, nil
}

type entry struct {
	utils.Request
	line int
}

func (e *entry) UnmarshalYAML(value *yaml.Node) error {
	e.line = value.Line
	if value.Kind == yaml.ScalarNode {
		e.URL = value.Value
		return nil
	}
	var raw struct {
		Method string `yaml:"method"`
		URL    string `yaml:"url"`
		Link   string `yaml:"link"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	e.Method = raw.Method
	e.URL = raw.URL
	if e.URL == "" {
		e.URL = raw.Link
	}
	return nil
}

// ParseYAML reads the YAML format.
func ParseYAML(data []byte, source string) ([]utils.Request, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &utils.ConfigError{Source: source, Err: fmt.Errorf("error parsing YAML: %w", err)}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	var entries []entry
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&entries); err != nil {
			return nil, &utils.ConfigError{Source: source, Line: root.Line, Err: err}
		}
	case yaml.MappingNode:
		var wrapped struct {
			URLs []entry `yaml:"urls"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, &utils.ConfigError{Source: source, Line: root.Line, Err: err}
		}
		entries = wrapped.URLs
	default:
		return nil, &utils.ConfigError{Source: source, Line: root.Line, Err: errors.New("expected a list of URLs")}
	}

	requests := make([]utils.Request, 0, len(entries))
	for _, e := range entries {
		if e.URL == "" {
			return nil, &utils.ConfigError{Source: source, Line: e.line, Err: errors.New("missing url")}
		}
		method := http.MethodGet
		if e.Method != "" {
			m, err := ParseMethod(e.Method)
			if err != nil {
				return nil, &utils.ConfigError{Source: source, Line: e.line, Err: err}
			}
			method = m
		}
		if err := ValidateURL(e.URL); err != nil {
			return nil, &utils.ConfigError{Source: source, Line: e.line, Err: err}
		}
		requests = append(requests, utils.Request{Method: method, URL: e.URL})
	}
	return requests, nil
}

// ParseMethod upper-cases and validates an HTTP method token.
func ParseMethod(method string) (string, error) {
	if method == "" {
		return "", errors.New("invalid method: empty")
	}
	for _, c := range method {
		if !isTokenChar(c) {
			return "", fmt.Errorf("invalid method %q", method)
		}
	}
	return strings.ToUpper(method), nil
}

func isTokenChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.ContainsRune("!#$%&'*+-.^_`|~", c)
}

// ValidateURL requires an absolute URL with a supported scheme and a host.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("invalid URL %q: must be absolute", raw)
	}
	if !supportedSchemes[strings.ToLower(parsed.Scheme)] {
		return fmt.Errorf("invalid URL %q: %w %q", raw, utils.ErrNotSupported, parsed.Scheme)
	}
	return nil
}
