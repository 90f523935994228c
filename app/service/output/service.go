// Package output delivers responses to a destination device, checking the
// device's capabilities first. Console is the only implemented channel.
package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"viki/app/config"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

const capTextOutput = "text_output"

// Delivery error codes.
const (
	CodeDeviceNotFound    = "DEVICE_NOT_FOUND"
	CodeUnsupportedOutput = "UNSUPPORTED_OUTPUT"
	CodeUnknownError      = "UNKNOWN_ERROR"
)

const StatusSent = "SENT"
const StatusFailed = "FAILED"

type Device struct {
	Type         string
	Capabilities []string
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Result struct {
	Success        bool   `json:"success"`
	DeliveryStatus string `json:"delivery_status"`
	Err            *Error `json:"error"`
}

type Service struct {
	assistantName string
	registry      map[string]Device
	writer        io.Writer
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewWithWriter(cfg.Assistant.Name, cfg.Assistant.DeviceID, os.Stdout), nil
}

// NewWithWriter builds the adapter with an explicit console writer, used by
// tests to capture emitted text.
func NewWithWriter(assistantName, consoleDeviceID string, writer io.Writer) *Service {
	return &Service{
		assistantName: assistantName,
		registry: map[string]Device{
			consoleDeviceID: {
				Type:         "console",
				Capabilities: []string{capTextOutput},
			},
		},
		writer: writer,
	}
}

// Register adds a device to the registry.
func (s *Service) Register(deviceID string, device Device) {
	s.registry[deviceID] = device
}

// Deliver emits text to the device. Failures come back as structured
// results, never as panics or Go errors.
func (s *Service) Deliver(deviceID, text string) Result {
	device, ok := s.registry[deviceID]
	if !ok {
		return failure(CodeDeviceNotFound,
			fmt.Sprintf("Device ID '%s' not found in registry.", deviceID))
	}

	if !pie.Contains(device.Capabilities, capTextOutput) {
		return failure(CodeUnsupportedOutput,
			fmt.Sprintf("Device '%s' (%s) does not support text output.", deviceID, device.Type))
	}

	if _, err := fmt.Fprintf(s.writer, "%s: %s\n", s.assistantName, text); err != nil {
		return failure(CodeUnknownError, err.Error())
	}

	slog.Debug("Response delivered",
		"device_id", deviceID,
		"device_type", device.Type,
		"text", text,
	)

	return Result{Success: true, DeliveryStatus: StatusSent}
}

func failure(code, message string) Result {
	slog.Error("Delivery failed", "code", code, "message", message)

	return Result{
		Success:        false,
		DeliveryStatus: StatusFailed,
		Err:            &Error{Code: code, Message: message},
	}
}
