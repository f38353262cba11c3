//go:build linux

package ext4

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/TheMichaelB/dircrypt/internal/models"
)

// policyV1 mirrors the kernel's struct fscrypt_policy_v1.
type policyV1 struct {
	Version       uint8
	ContentsMode  uint8
	FilenamesMode uint8
	Flags         uint8
	Descriptor    [models.KeyDescriptorSize]uint8
}

// OSFilesystem is the real filesystem.
type OSFilesystem struct{}

// NewOSFilesystem returns the real filesystem.
func NewOSFilesystem() *OSFilesystem {
	return &OSFilesystem{}
}

// Open implements Filesystem.
func (OSFilesystem) Open(path string) (Dir, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return nil, models.NewOpError("statfs", path, models.ErrIO, err)
	}
	if int64(st.Type) != SuperMagic {
		return nil, models.NewOpError("open", path, models.ErrFilesystemMismatch, nil)
	}

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.ENOTDIR) {
			return nil, models.NewOpError("open", path, models.ErrNotADirectory, err)
		}
		return nil, models.NewOpError("open", path, models.ErrIO, err)
	}

	return &osDir{fd: fd, path: path}, nil
}

type osDir struct {
	fd   int
	path string
}

func (d *osDir) Path() string {
	return d.path
}

func (d *osDir) GetPolicy() (*models.EncryptionPolicy, error) {
	var p policyV1
	if err := ioctl(d.fd, unix.FS_IOC_GET_ENCRYPTION_POLICY, unsafe.Pointer(&p)); err != nil {
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ENODATA) {
			return nil, nil
		}
		return nil, getPolicyError(d.path, err)
	}

	return &models.EncryptionPolicy{
		Version:       int(p.Version),
		ContentsMode:  models.CipherMode(p.ContentsMode),
		FilenamesMode: models.CipherMode(p.FilenamesMode),
		Flags:         p.Flags,
		KeyDescriptor: p.Descriptor,
	}, nil
}

func (d *osDir) SetPolicy(policy *models.EncryptionPolicy) error {
	p := policyV1{
		Version:       uint8(policy.Version),
		ContentsMode:  uint8(policy.ContentsMode),
		FilenamesMode: uint8(policy.FilenamesMode),
		Flags:         policy.Flags,
		Descriptor:    policy.KeyDescriptor,
	}

	if err := ioctl(d.fd, unix.FS_IOC_SET_ENCRYPTION_POLICY, unsafe.Pointer(&p)); err != nil {
		return setPolicyError(d.path, err)
	}
	return nil
}

func getPolicyError(path string, err error) error {
	if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.ENOTTY) {
		return models.NewOpError("get policy", path, models.ErrUnsupported, err)
	}
	return models.NewOpError("get policy", path, models.ErrIO, err)
}

func setPolicyError(path string, err error) error {
	switch {
	case errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.ENOTTY):
		return models.NewOpError("set policy", path, models.ErrUnsupported, err)
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.EEXIST):
		return models.NewOpError("set policy", path, models.ErrInvalidParameters,
			fmt.Errorf("conflicts with the existing encryption policy: %w", err))
	case errors.Is(err, unix.ENOTEMPTY):
		return models.NewOpError("set policy", path, models.ErrNotEmpty, err)
	default:
		return models.NewOpError("set policy", path, models.ErrIO, err)
	}
}

func (d *osDir) CreateMarker(name string) error {
	fd, err := unix.Openat(d.fd, name, unix.O_NONBLOCK|unix.O_CREAT|unix.O_TRUNC|unix.O_RDWR|unix.O_CLOEXEC, 0600)
	if err != nil {
		return models.NewOpError("create marker inode in", d.path, models.ErrIO, err)
	}
	defer unix.Close(fd)

	if err := unix.Unlinkat(d.fd, name, 0); err != nil {
		return models.NewOpError("unlink marker inode in", d.path, models.ErrIO, err)
	}
	return nil
}

func (d *osDir) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
