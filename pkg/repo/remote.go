package repo

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var scpSyntaxRe = regexp.MustCompile(`^([a-zA-Z0-9_]+)@([a-zA-Z0-9._-]+):(.*)$`)

// RemoteID turns a git remote URL into a host/path identifier, accepting
// both URL and scp-like (git@host:path) forms.
func RemoteID(remote string) (string, error) {
	var id string

	if m := scpSyntaxRe.FindStringSubmatch(remote); m != nil {
		id = fmt.Sprintf("%s/%s", m[2], strings.TrimPrefix(m[3], "/"))
	} else {
		u, err := url.Parse(remote)
		if err != nil {
			return "", err
		}

		if u.Host == "" {
			return "", errors.Errorf("remote has no host: %s", remote)
		}

		id = u.Host + "/" + strings.TrimPrefix(u.Path, "/")
	}

	return strings.TrimSuffix(strings.TrimSuffix(id, "/"), ".git"), nil
}
