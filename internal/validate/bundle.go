package validate

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

var requiredMetaTags = []string{
	"project-name",
	"project-description",
	"created-at",
	"updated-at",
	"artifact-count",
	"tags",
}

var (
	ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// Bundle validates a materialized project bundle on disk.
func Bundle(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		// html.Parse is forgiving; a parse error means truncated or
		// non-HTML input, which is a finding, not an I/O failure.
		report := newReport()
		report.errorf("not parseable as HTML: %v", err)
		return report, nil
	}

	report := newReport()
	meta := map[string]string{}
	var artifacts []map[string]string
	var htmlAttrs map[string]string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				htmlAttrs = attrMap(n)
			case "meta":
				attrs := attrMap(n)
				if name := attrs["name"]; name != "" {
					meta[name] = attrs["content"]
				}
			default:
				attrs := attrMap(n)
				if _, ok := attrs["data-artifact-id"]; ok {
					artifacts = append(artifacts, attrs)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	checkRootAttrs(report, htmlAttrs)
	checkMetaTags(report, meta)
	checkArtifacts(report, meta, artifacts)

	return report, nil
}

func attrMap(n *html.Node) map[string]string {
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[a.Key] = a.Val
	}
	return m
}

func checkRootAttrs(report *Report, attrs map[string]string) {
	if attrs == nil {
		report.errorf("no <html> element found")
		return
	}

	projectID, ok := attrs["data-project-id"]
	if !ok || projectID == "" {
		report.errorf("missing data-project-id on <html>")
	} else if !ulidPattern.MatchString(projectID) {
		report.errorf("data-project-id %q is not a ULID", projectID)
	}

	sessionID, ok := attrs["data-session-id"]
	if !ok || sessionID == "" {
		report.errorf("missing data-session-id on <html>")
	} else if !uuidPattern.MatchString(strings.ToLower(sessionID)) {
		report.errorf("data-session-id %q is not a UUID", sessionID)
	}
}

func checkMetaTags(report *Report, meta map[string]string) {
	for _, name := range requiredMetaTags {
		if _, ok := meta[name]; !ok {
			report.errorf("missing meta tag %q", name)
		}
	}

	if meta["project-name"] == "" {
		if _, ok := meta["project-name"]; ok {
			report.errorf("meta tag project-name is empty")
		}
	}

	for _, name := range []string{"created-at", "updated-at"} {
		value, ok := meta[name]
		if !ok {
			continue
		}
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			report.errorf("meta tag %q is not an RFC 3339 timestamp: %q", name, value)
		}
	}

	if value, ok := meta["artifact-count"]; ok {
		if n, err := strconv.Atoi(value); err != nil || n < 0 {
			report.errorf("meta tag artifact-count is not a non-negative integer: %q", value)
		}
	}
}

func checkArtifacts(report *Report, meta map[string]string, artifacts []map[string]string) {
	if declared, err := strconv.Atoi(meta["artifact-count"]); err == nil {
		if declared != len(artifacts) {
			report.errorf("artifact-count declares %d but the bundle contains %d", declared, len(artifacts))
		}
	}

	for i, attrs := range artifacts {
		id := attrs["data-artifact-id"]
		if !ulidPattern.MatchString(id) {
			report.errorf("artifact %d: data-artifact-id %q is not a ULID", i, id)
		}
		for _, key := range []string{"data-kind", "data-command", "data-created-at"} {
			if attrs[key] == "" {
				report.errorf("artifact %d: missing %s", i, key)
			}
		}
		if ts := attrs["data-created-at"]; ts != "" {
			if _, err := time.Parse(time.RFC3339, ts); err != nil {
				report.errorf("artifact %d: data-created-at is not an RFC 3339 timestamp: %q", i, ts)
			}
		}
	}
}
