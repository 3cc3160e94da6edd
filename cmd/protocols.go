package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/strix/internal/boot"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/protocol"
)

var protocolsOutput string

var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List built-in protocol descriptors",
	Long: `List the built-in protocol descriptors with their field tables.

Every descriptor shows its registry name, IANA protocol number, default
header size, and each field's key, wire type, and byte offset. The yaml
output is meant for scripting against the field tables.

Examples:
  strix protocols
  strix protocols --output yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		runProtocolsCommand()
	},
}

func init() {
	protocolsCmd.Flags().StringVarP(&protocolsOutput, "output", "o", "table",
		"output format: table | yaml")
	rootCmd.AddCommand(protocolsCmd)
}

func runProtocolsCommand() {
	loadConfig()

	reg, err := boot.NewRegistry()
	if err != nil {
		exitWithError("failed to build protocol registry", err)
	}

	if err := runProtocols(reg, protocolsOutput, os.Stdout); err != nil {
		exitWithError("failed to list protocols", err)
	}
}

// protocolListing is the yaml shape of one descriptor.
type protocolListing struct {
	Name       string         `yaml:"name"`
	Number     uint8          `yaml:"number"`
	HeaderSize int            `yaml:"header_size"`
	Fields     []fieldListing `yaml:"fields"`
}

type fieldListing struct {
	Key      string `yaml:"key"`
	Type     string `yaml:"type"`
	Offset   int    `yaml:"offset"`
	Width    int    `yaml:"width"`
	Optional bool   `yaml:"optional,omitempty"`
}

func runProtocols(reg *protocol.Registry, format string, out io.Writer) error {
	switch format {
	case "table":
		return writeProtocolTable(reg, out)
	case "yaml":
		return writeProtocolYAML(reg, out)
	default:
		return fmt.Errorf("%w: protocols output %q (must be table/yaml)", core.ErrConfigInvalid, format)
	}
}

func writeProtocolTable(reg *protocol.Registry, out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range reg.Names() {
		d, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\tnumber %d\theader %d bytes\t%d fields\n",
			d.Name(), d.Number(), d.HeaderSize(nil), d.FieldCount())
		for _, f := range d.Table().Fields() {
			note := ""
			if f.Optional {
				note = "optional"
			}
			fmt.Fprintf(w, "  %s\t%s\toffset %d\t%s\n", f.Key, f.Type, f.Offset, note)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func writeProtocolYAML(reg *protocol.Registry, out io.Writer) error {
	listings := make([]protocolListing, 0, reg.Len())
	for _, name := range reg.Names() {
		d, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		listing := protocolListing{
			Name:       d.Name(),
			Number:     d.Number(),
			HeaderSize: d.HeaderSize(nil),
		}
		for _, f := range d.Table().Fields() {
			listing.Fields = append(listing.Fields, fieldListing{
				Key:      f.Key,
				Type:     f.Type.String(),
				Offset:   f.Offset,
				Width:    f.Type.Width(),
				Optional: f.Optional,
			})
		}
		listings = append(listings, listing)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(listings); err != nil {
		return err
	}
	return enc.Close()
}
