package service

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
)

// MaxListLimit bounds the page size of list_recordings and list_snapshots.
const MaxListLimit = 1000

var (
	recordingFormats  = []string{"fmp4", "mp4", "mkv"}
	streamSchemes     = []string{"rtsp", "rtmp", "http", "https", "srt"}
	retentionPolicies = []string{"age", "size", "manual"}
)

func validateDevice(device string) error {
	if strings.TrimSpace(device) == "" {
		return invalid("device", "is required")
	}
	return nil
}

func validateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return invalid("filename", "is required")
	}
	return validateBaseName(filename)
}

// validateBaseName rejects anything that would address a file outside the
// server's media directory.
func validateBaseName(filename string) error {
	if strings.ContainsAny(filename, `/\`) {
		return invalid("filename", "%q must not contain path separators", filename)
	}
	if filename == "." || filename == ".." {
		return invalid("filename", "%q is not a file name", filename)
	}
	return nil
}

func validatePage(limit, offset int) error {
	if limit < 0 || limit > MaxListLimit {
		return invalid("limit", "%d out of range [0, %d]", limit, MaxListLimit)
	}
	if offset < 0 {
		return invalid("offset", "%d must not be negative", offset)
	}
	return nil
}

func validateDuration(d time.Duration) error {
	if d < 0 {
		return invalid("duration", "%s must not be negative", d)
	}
	return nil
}

func validateFormat(format string) error {
	if format != "" && !slices.Contains(recordingFormats, format) {
		return invalid("format", "%q must be one of %s", format, strings.Join(recordingFormats, ", "))
	}
	return nil
}

func validateStreamURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return invalid("stream_url", "is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return invalid("stream_url", "%v", err)
	}
	if !slices.Contains(streamSchemes, strings.ToLower(u.Scheme)) {
		return invalid("stream_url", "scheme %q must be one of %s", u.Scheme, strings.Join(streamSchemes, ", "))
	}
	if u.Host == "" {
		return invalid("stream_url", "missing host")
	}
	return nil
}

func validateRetentionPolicy(p model.RetentionPolicy) error {
	if !slices.Contains(retentionPolicies, p.PolicyType) {
		return invalid("policy_type", "%q must be one of %s", p.PolicyType, strings.Join(retentionPolicies, ", "))
	}
	if p.MaxAgeDays < 0 {
		return invalid("max_age_days", "%d must not be negative", p.MaxAgeDays)
	}
	if p.MaxSizeGB < 0 {
		return invalid("max_size_gb", "%d must not be negative", p.MaxSizeGB)
	}
	if p.PolicyType == "age" && p.MaxAgeDays == 0 {
		return invalid("max_age_days", "is required for age policies")
	}
	if p.PolicyType == "size" && p.MaxSizeGB == 0 {
		return invalid("max_size_gb", "is required for size policies")
	}
	return nil
}

func validateTopics(topics []string) error {
	for i, t := range topics {
		if strings.TrimSpace(t) == "" {
			return invalid("topics", "entry %d is empty", i)
		}
	}
	return nil
}
