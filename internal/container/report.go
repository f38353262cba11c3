package container

import (
	"fmt"
	"strings"

	"github.com/TheMichaelB/dircrypt/internal/ext4"
	"github.com/TheMichaelB/dircrypt/internal/models"
)

// Report describes a directory's encryption state.
type Report struct {
	Path       string          `json:"path"`
	Encrypted  bool            `json:"encrypted"`
	Version    int             `json:"version"`
	Contents   string          `json:"contents_cipher,omitempty"`
	Filenames  string          `json:"filename_cipher,omitempty"`
	Padding    int             `json:"padding,omitempty"`
	Descriptor string          `json:"descriptor,omitempty"`
	KeyPresent bool            `json:"key_present"`
	KeySerial  int             `json:"key_serial,omitempty"`
	Mount      *ext4.MountInfo `json:"mount,omitempty"`
}

func newReport(path string, policy *models.EncryptionPolicy) *Report {
	r := &Report{Path: path}
	if policy == nil {
		return r
	}
	r.Encrypted = true
	r.Version = policy.Version
	r.Contents = policy.ContentsMode.String()
	r.Filenames = policy.FilenamesMode.String()
	r.Padding = policy.Padding()
	r.Descriptor = policy.KeyDescriptor.String()
	return r
}

// String renders the report as aligned text.
func (r *Report) String() string {
	var b strings.Builder

	if !r.Encrypted {
		fmt.Fprintf(&b, "Regular directory:    %s\n", r.Path)
	} else {
		fmt.Fprintf(&b, "Encrypted directory:  %s\n", r.Path)
		fmt.Fprintf(&b, "Policy version:       %d\n", r.Version)
		fmt.Fprintf(&b, "Filename cipher:      %s\n", r.Filenames)
		fmt.Fprintf(&b, "Contents cipher:      %s\n", r.Contents)
		fmt.Fprintf(&b, "Filename padding:     %d\n", r.Padding)
		fmt.Fprintf(&b, "Key descriptor:       %s\n", r.Descriptor)
		if r.KeyPresent {
			fmt.Fprintf(&b, "Key serial:           %d\n", r.KeySerial)
		} else {
			b.WriteString("Key serial:           not found\n")
		}
	}

	if r.Mount != nil {
		fmt.Fprintf(&b, "Device:               %s\n", r.Mount.Device)
		fmt.Fprintf(&b, "Mount point:          %s\n", r.Mount.Mountpoint)
	}

	return b.String()
}

// Entry is a registry record with its current key presence.
type Entry struct {
	*models.Container
	KeyPresent bool `json:"key_present"`
	KeySerial  int  `json:"key_serial,omitempty"`
}
