package app

import (
	"fmt"
	"io"

	"github.com/emmett/livecap/internal/audio"
	"github.com/emmett/livecap/internal/translate"
)

// DeviceManager handles audio device and language listing
type DeviceManager struct {
	out  io.Writer
	list func() ([]audio.DeviceInfo, error)
}

// NewDeviceManager creates a new DeviceManager writing to out
func NewDeviceManager(out io.Writer) *DeviceManager {
	return &DeviceManager{out: out, list: audio.ListDevices}
}

// ListDevices lists all available audio input devices
func (dm *DeviceManager) ListDevices() error {
	fmt.Fprintln(dm.out, "Detecting audio input devices...")
	fmt.Fprintln(dm.out)

	devices, err := dm.list()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Fprintln(dm.out, "No audio capture devices found.")
		return audio.ErrNoDevice
	}

	fmt.Fprintf(dm.out, "Found %d capture device(s):\n\n", len(devices))

	for i, device := range devices {
		marker := ""
		if device.IsDefault {
			marker = " [DEFAULT]"
		}
		fmt.Fprintf(dm.out, "%d. %s%s\n", i+1, device.Name, marker)
		fmt.Fprintf(dm.out, "   ID: %s\n", device.ID)
		fmt.Fprintln(dm.out)
	}

	fmt.Fprintln(dm.out, "To use a specific device, run:")
	fmt.Fprintf(dm.out, "  livecap --device \"%s\"\n", devices[0].Name)

	return nil
}

// ListLanguages prints the transcription and translation language codes
func (dm *DeviceManager) ListLanguages() {
	fmt.Fprintln(dm.out, "Spoken languages (--language):")
	for _, l := range translate.SourceLanguages {
		fmt.Fprintf(dm.out, "  %-4s %s\n", l.Code, l.Name)
	}
	fmt.Fprintln(dm.out)
	fmt.Fprintln(dm.out, "Translation targets (--target, empty disables translation):")
	for _, l := range translate.TargetLanguages {
		fmt.Fprintf(dm.out, "  %-4s %s\n", l.Code, l.Name)
	}
}
