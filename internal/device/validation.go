package device

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants.
const (
	minOwnerLength = 3
	maxOwnerLength = 32
	ownerPattern   = `^[a-z0-9]{3,32}$`
)

var ownerRegex = regexp.MustCompile(ownerPattern)

// ValidateOwner checks an owner username: lowercase alphanumeric,
// 3 to 32 characters.
func ValidateOwner(owner string) error {
	if len(owner) < minOwnerLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalidOwner, minOwnerLength)
	}
	if len(owner) > maxOwnerLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrInvalidOwner, maxOwnerLength)
	}
	if !ownerRegex.MatchString(owner) {
		return fmt.Errorf("%w: must be lowercase letters and digits only", ErrInvalidOwner)
	}
	return nil
}

// ValidateDevice performs validation on a device record before persistence.
// Returns an error describing the first validation failure found.
//
// Zero zones is allowed: a device without zones is registered but unusable
// for zone commands.
func ValidateDevice(d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}

	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDevice)
	}

	if err := ValidateOwner(d.Owner); err != nil {
		return err
	}

	if strings.TrimSpace(d.City) == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidCity)
	}

	if d.APIKey == "" {
		return ErrMissingAPIKey
	}

	// Zone numbers must be unique within the device
	seen := make(map[int]struct{}, len(d.Zones))
	for _, z := range d.Zones {
		if _, dup := seen[z.Number]; dup {
			return fmt.Errorf("%w: zone number %d", ErrDuplicateZone, z.Number)
		}
		seen[z.Number] = struct{}{}
	}

	return nil
}
