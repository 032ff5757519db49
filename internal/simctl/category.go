package simctl

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Default category patterns. They match identifiers such as
// com.apple.CoreSimulator.SimDeviceType.iPhone-11 and
// com.apple.CoreSimulator.SimRuntime.watchOS-6-0.
const (
	DefaultPhonePattern   = "*.SimDeviceType.iPhone-*"
	DefaultWatchPattern   = "*.SimDeviceType.Apple-Watch-Series-*-44mm"
	DefaultIOSPattern     = "*.SimRuntime.iOS-*"
	DefaultWatchOSPattern = "*.SimRuntime.watchOS-*"
	DefaultTVOSPattern    = "*.SimRuntime.tvOS-*"
)

// Pattern is a compiled identifier glob.
type Pattern struct {
	raw string
	g   glob.Glob
}

// CompilePattern compiles a glob such as "*.SimRuntime.iOS-*".
func CompilePattern(raw string) (Pattern, error) {
	g, err := glob.Compile(raw)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid category pattern %q: %w", raw, err)
	}
	return Pattern{raw: raw, g: g}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(raw string) Pattern {
	p, err := CompilePattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether identifier belongs to the category. The zero
// Pattern matches nothing.
func (p Pattern) Match(identifier string) bool {
	if p.g == nil {
		return false
	}
	return p.g.Match(identifier)
}

// String returns the source glob.
func (p Pattern) String() string {
	return p.raw
}

// OSFamily names a runtime category.
type OSFamily string

const (
	FamilyIOS     OSFamily = "iOS"
	FamilyWatchOS OSFamily = "watchOS"
	FamilyTVOS    OSFamily = "tvOS"
	FamilyOther   OSFamily = "other"
)

// Categories groups the patterns that sort the open catalogs.
type Categories struct {
	Phone   Pattern
	Watch   Pattern
	IOS     Pattern
	WatchOS Pattern
	TVOS    Pattern
}

// NewCategories compiles all five patterns.
func NewCategories(phone, watch, ios, watchos, tvos string) (Categories, error) {
	var c Categories
	for _, f := range []struct {
		dst *Pattern
		raw string
	}{
		{&c.Phone, phone},
		{&c.Watch, watch},
		{&c.IOS, ios},
		{&c.WatchOS, watchos},
		{&c.TVOS, tvos},
	} {
		p, err := CompilePattern(f.raw)
		if err != nil {
			return Categories{}, err
		}
		*f.dst = p
	}
	return c, nil
}

// DefaultCategories returns the built-in patterns.
func DefaultCategories() Categories {
	return Categories{
		Phone:   MustCompilePattern(DefaultPhonePattern),
		Watch:   MustCompilePattern(DefaultWatchPattern),
		IOS:     MustCompilePattern(DefaultIOSPattern),
		WatchOS: MustCompilePattern(DefaultWatchOSPattern),
		TVOS:    MustCompilePattern(DefaultTVOSPattern),
	}
}

// Family returns the OS family a runtime identifier belongs to.
func (c Categories) Family(runtimeIdentifier string) OSFamily {
	switch {
	case c.IOS.Match(runtimeIdentifier):
		return FamilyIOS
	case c.WatchOS.Match(runtimeIdentifier):
		return FamilyWatchOS
	case c.TVOS.Match(runtimeIdentifier):
		return FamilyTVOS
	default:
		return FamilyOther
	}
}
