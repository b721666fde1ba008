// Package scope provides the key preferences are remembered under on this device.
package scope

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/metafates/gache"
	"github.com/vidrelay/vidrelay/constant"
	"github.com/vidrelay/vidrelay/filesystem"
	"github.com/vidrelay/vidrelay/log"
	"github.com/vidrelay/vidrelay/where"
	"github.com/zalando/go-keyring"
)

const (
	service = constant.App
	user    = "device-scope"
)

func fallback() *gache.Cache[string] {
	return gache.New[string](&gache.Options{
		Path:       where.Scope(),
		FileSystem: &filesystem.GacheFs{},
	})
}

// Device returns the stable scope of this device, generating one on first use.
// The key lives in the OS keyring; a file in the config directory stands in
// when no keyring is available.
func Device() (string, error) {
	id, err := keyring.Get(service, user)
	if err == nil && id != "" {
		return id, nil
	}

	keyringUsable := err == nil || errors.Is(err, keyring.ErrNotFound)
	if !keyringUsable {
		log.WithFields(log.Fields{"error": err}).Debug("keyring unavailable, using file scope")
	}

	file := fallback()
	stored, expired, ferr := file.Get()
	if ferr == nil && !expired {
		id = strings.TrimSpace(stored)
	}

	if id == "" {
		id = uuid.NewString()
	}

	if keyringUsable {
		if err := keyring.Set(service, user, id); err == nil {
			return id, nil
		}
		log.Warn("storing device scope in keyring failed, using file scope")
	}

	if stored != id {
		if err := file.Set(id); err != nil {
			return "", err
		}
	}
	return id, nil
}

// Resolve returns explicit when set, else Device().
func Resolve(explicit string) (string, error) {
	if s := strings.TrimSpace(explicit); s != "" {
		return s, nil
	}
	return Device()
}

// Forget drops the device scope from both the keyring and the fallback file.
// The next Device call generates a new one.
func Forget() error {
	err := keyring.Delete(service, user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.WithFields(log.Fields{"error": err}).Debug("keyring delete failed")
	}

	exists, ferr := filesystem.API().Exists(where.Scope())
	if ferr != nil || !exists {
		return ferr
	}
	return filesystem.API().Remove(where.Scope())
}
