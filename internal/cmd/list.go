package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Iron-Ham/simfleet/internal/report"
	"github.com/Iron-Ham/simfleet/internal/simctl"
	"github.com/Iron-Ham/simfleet/internal/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the runtimes, device types and instances on this host",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var listJSON bool

// maxNameWidth bounds the name column of the instance table.
const maxNameWidth = 40

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the inventory as JSON (same as --output json)")
}

// inventoryView is the serialized form of an inventory. Devices stay grouped
// by runtime key, as the tool lists them.
type inventoryView struct {
	DeviceTypes []simctl.DeviceType        `json:"devicetypes" yaml:"devicetypes"`
	Runtimes    []simctl.Runtime           `json:"runtimes" yaml:"runtimes"`
	Devices     map[string][]simctl.Device `json:"devices" yaml:"devices"`
	Pairs       map[string]simctl.Pair     `json:"pairs" yaml:"pairs"`
}

func newInventoryView(inv *simctl.Inventory) inventoryView {
	pairs := make(map[string]simctl.Pair, len(inv.Pairs))
	for _, p := range inv.Pairs {
		pairs[p.ID] = p
	}
	return inventoryView{
		DeviceTypes: inv.DeviceTypes,
		Runtimes:    inv.Runtimes,
		Devices:     inv.Devices,
		Pairs:       pairs,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := newRunEnv(cmd, "list")
	if err != nil {
		return err
	}
	defer env.close()

	inv, err := env.client.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	format := env.format()
	if listJSON {
		format = report.FormatJSON
	}

	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(env.out)
		enc.SetIndent("", "  ")
		return enc.Encode(newInventoryView(inv))
	case report.FormatYAML:
		enc := yaml.NewEncoder(env.out)
		enc.SetIndent(2)
		if err := enc.Encode(newInventoryView(inv)); err != nil {
			return err
		}
		return enc.Close()
	default:
		printInventory(env.out, inv, env.categories, env.renderer)
		return nil
	}
}

func printInventory(w io.Writer, inv *simctl.Inventory, cats simctl.Categories, r styles.Renderer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Render(styles.Title, "RUNTIMES"))
	runtimes := make([][]string, 0, len(inv.Runtimes))
	for _, rt := range inv.Runtimes {
		runtimes = append(runtimes, []string{
			rt.Name,
			rt.Version,
			string(cats.Family(rt.Identifier)),
			availabilityLabel(rt.Available(), r),
		})
	}
	fmt.Fprintln(w, newTable(r, []string{"NAME", "VERSION", "FAMILY", "AVAILABLE"}, runtimes))

	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Render(styles.Title, "INSTANCES"))
	var devices [][]string
	for _, d := range inv.AllDevices() {
		runtime := d.RuntimeKey
		if rt, ok := inv.Runtime(d.RuntimeKey); ok {
			runtime = rt.Name
		}
		devices = append(devices, []string{
			styles.Truncate(d.Name, maxNameWidth),
			runtime,
			d.State,
			d.UDID,
		})
	}
	if len(devices) == 0 {
		fmt.Fprintln(w, r.Render(styles.Muted, "No instances."))
	} else {
		fmt.Fprintln(w, newTable(r, []string{"NAME", "RUNTIME", "STATE", "UDID"}, devices))
	}

	fmt.Fprintln(w)
	summary := []string{
		fmt.Sprintf("%d device types", len(inv.DeviceTypes)),
		fmt.Sprintf("%d runtimes", len(inv.Runtimes)),
		fmt.Sprintf("%d instances", len(inv.AllDevices())),
		fmt.Sprintf("%d pairs", len(inv.Pairs)),
	}
	fmt.Fprintln(w, r.Render(styles.Muted, strings.Join(summary, ", ")))
}

func availabilityLabel(ok bool, r styles.Renderer) string {
	if ok {
		return r.Render(styles.Success, "yes")
	}
	return r.Render(styles.Muted, "no")
}

func newTable(r styles.Renderer, headers []string, rows [][]string) *table.Table {
	header := lipgloss.NewStyle().Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	border := lipgloss.NewStyle()
	if r.Enabled() {
		header = styles.TableHeader
		cell = styles.TableCell
		border = border.Foreground(styles.BorderColor)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...).
		Rows(rows...)
}
