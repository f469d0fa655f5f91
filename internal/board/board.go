// Package board keeps the table of boards cpeer-flash knows how to flash.
package board

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gosuri/uitable"
)

var ErrUnknownBoard = errors.New("unknown board")

// Board identifies a physical target: the OpenOCD configuration that talks
// to its debug probe and the platform/target pair naming its artifacts.
type Board struct {
	Name          string `json:"name" mapstructure:"name"`
	OpenOCDConfig string `json:"openocd-config" mapstructure:"openocd-config"`
	Platform      string `json:"platform" mapstructure:"platform"`
	Target        string `json:"target" mapstructure:"target"`
	Description   string `json:"description,omitempty" mapstructure:"description"`
}

func (b Board) Validate() error {
	var missing []string
	if b.Name == "" {
		missing = append(missing, "name")
	}
	if b.OpenOCDConfig == "" {
		missing = append(missing, "openocd-config")
	}
	if b.Platform == "" {
		missing = append(missing, "platform")
	}
	if len(missing) > 0 {
		return fmt.Errorf("board %q: missing %s", b.Name, strings.Join(missing, ", "))
	}
	return nil
}

var builtin = []Board{
	{
		Name:          "nucleo_f429zi",
		OpenOCDConfig: "board/st_nucleo_f4.cfg",
		Platform:      "nucleo_f429zi",
		Target:        "thumbv7em-none-eabi",
		Description:   "ST Nucleo-144 F429ZI",
	},
	{
		Name:          "nucleo_f446re",
		OpenOCDConfig: "board/st_nucleo_f4.cfg",
		Platform:      "nucleo_f446re",
		Target:        "thumbv7em-none-eabi",
		Description:   "ST Nucleo-64 F446RE",
	},
	{
		Name:          "stm32f3discovery",
		OpenOCDConfig: "board/stm32f3discovery.cfg",
		Platform:      "stm32f3discovery",
		Target:        "thumbv7em-none-eabi",
		Description:   "ST STM32F3DISCOVERY",
	},
	{
		Name:          "stm32f412gdiscovery",
		OpenOCDConfig: "board/stm32f412g-disco.cfg",
		Platform:      "stm32f412gdiscovery",
		Target:        "thumbv7em-none-eabi",
		Description:   "ST 32F412GDISCOVERY",
	},
	{
		Name:          "stm32f429idiscovery",
		OpenOCDConfig: "board/stm32f429discovery.cfg",
		Platform:      "stm32f429idiscovery",
		Target:        "thumbv7em-none-eabi",
		Description:   "ST 32F429IDISCOVERY",
	},
}

// Registry resolves board names. Boards from configuration shadow built-in
// entries of the same name.
type Registry struct {
	boards map[string]Board
}

func NewRegistry(extra ...Board) (*Registry, error) {
	r := &Registry{boards: make(map[string]Board, len(builtin)+len(extra))}
	for _, b := range builtin {
		r.boards[b.Name] = b
	}

	var errs []error
	for _, b := range extra {
		if err := b.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		r.boards[b.Name] = b
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return r, nil
}

func (r *Registry) Get(name string) (Board, error) {
	b, ok := r.boards[name]
	if !ok {
		return Board{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownBoard, name, strings.Join(r.Names(), ", "))
	}
	return b, nil
}

// Names returns the sorted board names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.boards))
	for name := range r.boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all boards sorted by name.
func (r *Registry) List() []Board {
	out := make([]Board, 0, len(r.boards))
	for _, name := range r.Names() {
		out = append(out, r.boards[name])
	}
	return out
}

// PrintTable writes boards to w as an aligned table.
func PrintTable(w io.Writer, boards []Board) error {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("NAME", "OPENOCD CONFIG", "PLATFORM", "TARGET", "DESCRIPTION")
	for _, b := range boards {
		table.AddRow(b.Name, b.OpenOCDConfig, b.Platform, b.Target, b.Description)
	}
	_, err := fmt.Fprintln(w, table)
	return err
}
