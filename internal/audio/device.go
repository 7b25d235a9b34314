package audio

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// DeviceInfo contains information about a capture device
type DeviceInfo struct {
	ID        string // Stable index-based identifier
	Name      string // Human-readable device name
	IsDefault bool   // Whether this is the system default device

	id malgo.DeviceID
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	defaultMarker := ""
	if d.IsDefault {
		defaultMarker = " [DEFAULT]"
	}
	return fmt.Sprintf("%s: %s%s", d.ID, d.Name, defaultMarker)
}

// ListDevices returns every capture device known to the audio backend
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	return enumerateDevices(ctx)
}

func enumerateDevices(ctx *malgo.AllocatedContext) ([]DeviceInfo, error) {
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i, info := range infos {
		devices = append(devices, DeviceInfo{
			ID:        fmt.Sprintf("capture-%d", i),
			Name:      info.Name(),
			IsDefault: info.IsDefault > 0,
			id:        info.ID,
		})
	}

	return devices, nil
}

// SelectDevice picks the device matching name (by name or ID). With an
// empty name, or when no device matches, the default device is returned
// and fellBack reports whether a named device was missing.
func SelectDevice(devices []DeviceInfo, name string) (selected *DeviceInfo, fellBack bool, err error) {
	if len(devices) == 0 {
		return nil, false, ErrNoDevice
	}

	if name != "" {
		for i := range devices {
			if devices[i].Name == name || devices[i].ID == name {
				return &devices[i], false, nil
			}
		}
		fellBack = true
	}

	for i := range devices {
		if devices[i].IsDefault {
			return &devices[i], fellBack, nil
		}
	}

	// Backends that do not flag a default list it first
	return &devices[0], fellBack, nil
}
