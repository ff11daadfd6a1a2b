package link

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ChannelID normalizes a configured channel entry to a bare channel identifier.
// Accepts either an identifier as-is or a channel URL.
func ChannelID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty channel")
	}

	if !strings.Contains(s, "/") && !strings.Contains(s, ".") {
		// Already a bare identifier
		return s, nil
	}

	parsed, err := parseURL(s)
	if err != nil {
		return "", err
	}

	if strings.HasSuffix(parsed.Host, "youtube.com") {
		return parseYoutubeURL(parsed)
	}

	return "", errors.New("unsupported URL host")
}

func parseURL(link string) (*url.URL, error) {
	if !strings.HasPrefix(link, "http") {
		link = "https://" + link
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse url: %s", link)
	}

	return parsed, nil
}

func parseYoutubeURL(parsed *url.URL) (string, error) {
	path := parsed.EscapedPath()

	// - https://www.youtube.com/channel/UC5XPnUk8Vvv_pWslhwom6Og
	// - https://www.youtube.com/channel/UCrlakW-ewUT8sOod6Wmzyow/videos
	if strings.HasPrefix(path, "/channel") {
		parts := strings.Split(path, "/")
		if len(parts) <= 2 {
			return "", errors.New("invalid youtube channel link")
		}

		id := parts[2]
		if id == "" {
			return "", errors.New("invalid id")
		}

		return id, nil
	}

	return "", errors.New("unsupported link format")
}
