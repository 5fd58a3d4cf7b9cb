// Package validation checks inventory values before they are interpolated
// into commands run on the target host.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput          = errors.New("input cannot be empty")
	ErrInvalidPackageName  = errors.New("invalid package name")
	ErrPathTraversal       = errors.New("path traversal detected")
	ErrInvalidPath         = errors.New("invalid path")
	ErrCommandInjection    = errors.New("potential command injection detected")
	ErrInvalidHostname     = errors.New("invalid hostname")
	ErrInvalidDNSLabel     = errors.New("invalid DNS label")
	ErrNewlineInjection    = errors.New("newline injection detected")
	ErrInvalidSSHParameter = errors.New("invalid SSH parameter")
	ErrInvalidURL          = errors.New("invalid URL")
	ErrInvalidReleaseTag   = errors.New("invalid release tag")
	ErrInvalidUnitName     = errors.New("invalid systemd unit name")
	ErrInvalidFirewallSvc  = errors.New("invalid firewalld service name")
)

var (
	// packageNameRegex matches rpm package names, including arch suffixes.
	packageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

	// hostnameRegex matches hostnames and IPv4 addresses.
	hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*$`)

	// dnsLabelRegex matches a single RFC 1123 label.
	dnsLabelRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

	// safeValueRegex matches values without control characters.
	safeValueRegex = regexp.MustCompile(`^[^\x00-\x1f\x7f]*$`)

	// urlRegex matches HTTP/HTTPS URLs with an optional port and path.
	urlRegex = regexp.MustCompile(`^https?://[a-zA-Z0-9][a-zA-Z0-9.-]*(:[0-9]{1,5})?(/[a-zA-Z0-9._~%+/-]*)?$`)

	// releaseTagRegex matches git tags such as v4.15.0 or 4.15.0-0.okd-2024-03-10-010116.
	releaseTagRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

	// unitNameRegex matches systemd unit names with a type suffix.
	unitNameRegex = regexp.MustCompile(`^[a-zA-Z0-9@._:-]+\.(service|socket|target|timer|path|mount)$`)

	// firewallServiceRegex matches firewalld service names.
	firewallServiceRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

	// shellMetaChars contains shell metacharacters that could enable injection
	shellMetaChars = []string{";", "|", "&", "$", "`", "(", ")", "{", "}", "<", ">", "\n", "\r", "\\"}
)

// ValidatePackageName validates an rpm package name.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}

	if len(name) > 256 {
		return fmt.Errorf("%w: name too long (max 256 characters)", ErrInvalidPackageName)
	}

	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPackageName, name)
	}

	if containsShellMeta(name) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, name)
	}

	return nil
}

// ValidateHostname validates the SSH target or a cluster base domain.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return ErrEmptyInput
	}

	if len(hostname) > 253 {
		return fmt.Errorf("%w: hostname too long", ErrInvalidHostname)
	}

	if !hostnameRegex.MatchString(hostname) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidHostname, hostname)
	}

	if strings.HasSuffix(hostname, ".") || strings.Contains(hostname, "..") {
		return fmt.Errorf("%w: %q has an empty label", ErrInvalidHostname, hostname)
	}

	return nil
}

// ValidateDNSLabel validates a single lowercase DNS label, such as a
// cluster or node name.
func ValidateDNSLabel(label string) error {
	if label == "" {
		return ErrEmptyInput
	}

	if !dnsLabelRegex.MatchString(label) {
		return fmt.Errorf("%w: %q must be lowercase alphanumerics and hyphens, at most 63 characters", ErrInvalidDNSLabel, label)
	}

	return nil
}

// ValidateURL validates an HTTP or HTTPS URL.
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return ErrEmptyInput
	}

	if len(urlStr) > 2048 {
		return fmt.Errorf("%w: URL too long", ErrInvalidURL)
	}

	if !urlRegex.MatchString(urlStr) {
		return fmt.Errorf("%w: %q must be a valid HTTP/HTTPS URL", ErrInvalidURL, urlStr)
	}

	if containsShellMeta(urlStr) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, urlStr)
	}

	return nil
}

// ValidateReleaseTag validates a pinned release tag. Tags end up in file
// names and download URLs.
func ValidateReleaseTag(tag string) error {
	if tag == "" {
		return ErrEmptyInput
	}

	if len(tag) > 128 {
		return fmt.Errorf("%w: tag too long", ErrInvalidReleaseTag)
	}

	if !releaseTagRegex.MatchString(tag) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidReleaseTag, tag)
	}

	return nil
}

// ValidateUnitName validates a systemd unit name such as nginx.service.
func ValidateUnitName(unit string) error {
	if unit == "" {
		return ErrEmptyInput
	}

	if !unitNameRegex.MatchString(unit) {
		return fmt.Errorf("%w: %q", ErrInvalidUnitName, unit)
	}

	return nil
}

// ValidateFirewallService validates a firewalld service name.
func ValidateFirewallService(name string) error {
	if name == "" {
		return ErrEmptyInput
	}

	if !firewallServiceRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFirewallSvc, name)
	}

	return nil
}

// ValidatePath validates a file path and prevents path traversal attacks.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}

	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}

	return nil
}

// ValidateAbsolutePath validates a path that must be absolute on the host.
func ValidateAbsolutePath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q must be absolute", ErrInvalidPath, path)
	}
	return nil
}

// ValidateSSHParameter validates free-form SSH settings such as key paths.
func ValidateSSHParameter(value string) error {
	if value == "" {
		return nil
	}

	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("%w: parameter contains newlines", ErrNewlineInjection)
	}

	if !safeValueRegex.MatchString(value) {
		return fmt.Errorf("%w: contains control characters", ErrInvalidSSHParameter)
	}

	return nil
}

// containsShellMeta checks if a string contains shell metacharacters.
func containsShellMeta(s string) bool {
	for _, char := range shellMetaChars {
		if strings.Contains(s, char) {
			return true
		}
	}
	return false
}

// containsPathTraversal checks for common path traversal patterns.
func containsPathTraversal(path string) bool {
	normalized := filepath.Clean(path)

	segments := strings.Split(normalized, string(filepath.Separator))
	for _, seg := range segments {
		if seg == ".." {
			return true
		}
	}

	if strings.Contains(path, "%2e%2e") || strings.Contains(path, "%2E%2E") {
		return true
	}

	return false
}
