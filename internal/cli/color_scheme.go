package cli

import (
	"image/color"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/exp/charmtone"
)

// ColorSchemeFunc returns the rulekit help and error color scheme.
func ColorSchemeFunc(c lipgloss.LightDarkFunc) fang.ColorScheme {
	cs := fang.DefaultColorScheme(c)

	cs.Title = charmtone.Guac
	cs.Program = c(charmtone.Sardine, charmtone.Julep)
	cs.Command = charmtone.Malibu
	cs.Flag = c(charmtone.Zest, charmtone.Mustard)
	cs.FlagDefault = c(charmtone.Smoke, charmtone.Squid)
	cs.ErrorHeader = [2]color.Color{
		charmtone.Salt,
		charmtone.Sriracha,
	}

	return cs
}
