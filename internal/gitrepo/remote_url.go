package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshURLTemplateConstant         = "git@%s:%s/%s.git"
	httpsURLTemplateConstant       = "https://%s/%s/%s.git"
	gitSuffixConstant              = ".git"
	remoteURLErrorTemplateConstant = "%s: %s"
	requiredValueMessageConstant   = "value required"
	unknownProtocolMessageConstant = "unsupported remote protocol"
	DefaultHostConstant            = "github.com"
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
)

// RemoteURL identifies a hosted repository.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// RemoteURLError reports a remote that cannot be formatted.
type RemoteURLError struct {
	Input   string
	Message string
}

func (remoteError RemoteURLError) Error() string {
	return fmt.Sprintf(remoteURLErrorTemplateConstant, remoteError.Input, remoteError.Message)
}

// ParseRemoteProtocol normalizes a configured protocol name. Empty selects ssh.
func ParseRemoteProtocol(raw string) (RemoteProtocol, error) {
	switch RemoteProtocol(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RemoteProtocolSSH:
		return RemoteProtocolSSH, nil
	case RemoteProtocolHTTPS:
		return RemoteProtocolHTTPS, nil
	default:
		return "", RemoteURLError{Input: raw, Message: unknownProtocolMessageConstant}
	}
}

// FormatRemoteURL renders the clone URL, git@host:owner/repo.git for ssh and
// https://host/owner/repo.git for https. An empty host means github.com.
func FormatRemoteURL(remote RemoteURL) (string, error) {
	host := strings.TrimSpace(remote.Host)
	if len(host) == 0 {
		host = DefaultHostConstant
	}
	owner := strings.TrimSpace(remote.Owner)
	if len(owner) == 0 {
		return "", RemoteURLError{Input: "owner", Message: requiredValueMessageConstant}
	}
	repository := strings.TrimSuffix(strings.TrimSpace(remote.Repository), gitSuffixConstant)
	if len(repository) == 0 {
		return "", RemoteURLError{Input: "repository", Message: requiredValueMessageConstant}
	}

	switch remote.Protocol {
	case RemoteProtocolSSH:
		return fmt.Sprintf(sshURLTemplateConstant, host, owner, repository), nil
	case RemoteProtocolHTTPS:
		return fmt.Sprintf(httpsURLTemplateConstant, host, owner, repository), nil
	default:
		return "", RemoteURLError{Input: string(remote.Protocol), Message: unknownProtocolMessageConstant}
	}
}
