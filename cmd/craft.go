package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/spf13/cobra"

	"firestige.xyz/strix/internal/boot"
	"firestige.xyz/strix/internal/config"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/probe"
	"firestige.xyz/strix/internal/protocol"
)

var (
	craftStack      string
	craftFields     []string
	craftPayload    string
	craftPayloadHex string
	craftOutput     string
)

var craftCmd = &cobra.Command{
	Use:   "craft",
	Short: "Craft a probe packet from a protocol stack",
	Long: `Craft a wire-ready probe from an outermost-first protocol stack.

Each layer starts from its descriptor's default header. Field presets from
the config file apply first, then --field flags on top. Lengths, protocol
numbers and checksums are derived from the final layout unless pinned.

Field values accept decimal, 0x-prefixed hex, and dotted IPv4 notation.
A --field flag targets the outermost layer of the named protocol.

Examples:
  strix craft                                            # ipv4/udp with defaults
  strix craft --stack ipv4/udp --field udp.dst_port=33434
  strix craft --field ipv4.src_ip=10.0.0.1 --field ipv4.ttl=1
  strix craft --stack ipv4/icmpv4 --payload-hex deadbeef --output summary`,
	Run: func(cmd *cobra.Command, args []string) {
		runCraftCommand()
	},
}

func init() {
	craftCmd.Flags().StringVarP(&craftStack, "stack", "s", "",
		"outermost-first protocol stack, \"/\"-separated (default from config)")
	craftCmd.Flags().StringArrayVarP(&craftFields, "field", "f", nil,
		"field override as proto.field=value, repeatable")
	craftCmd.Flags().StringVar(&craftPayload, "payload", "",
		"trailing payload as literal text")
	craftCmd.Flags().StringVar(&craftPayloadHex, "payload-hex", "",
		"trailing payload as a hex string")
	craftCmd.Flags().StringVarP(&craftOutput, "output", "o", "",
		"output format: hex | raw | summary (default from config)")
	rootCmd.AddCommand(craftCmd)
}

func runCraftCommand() {
	cfg := loadConfig()

	// Flags win over config file values; re-validate the merged result.
	if craftStack != "" {
		cfg.Craft.Stack = craftStack
	}
	if craftOutput != "" {
		cfg.Craft.Output = craftOutput
	}
	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		exitWithError("invalid craft flags", err)
	}

	payload, err := parsePayload(craftPayload, craftPayloadHex)
	if err != nil {
		exitWithError("invalid payload", err)
	}

	reg, err := boot.NewRegistry()
	if err != nil {
		exitWithError("failed to build protocol registry", err)
	}

	if err := runCraft(reg, cfg, craftFields, payload, os.Stdout); err != nil {
		exitWithError("craft failed", err)
	}
}

// runCraft assembles the probe described by the merged configuration and
// writes it to out in the configured format.
func runCraft(reg *protocol.Registry, cfg *config.GlobalConfig, fieldFlags []string, payload []byte, out io.Writer) error {
	stack := cfg.Craft.Layers()
	stackLayers := make([]probe.Layer, len(stack))
	for i, name := range stack {
		preset, err := cfg.FieldValues(name)
		if err != nil {
			return err
		}
		stackLayers[i] = probe.Layer{Protocol: name, Fields: preset}
	}
	if err := applyFieldFlags(stackLayers, fieldFlags); err != nil {
		return err
	}

	pkt, err := probe.Build(reg, probe.Probe{Layers: stackLayers, Payload: payload})
	if err != nil {
		return err
	}
	return writeProbe(out, pkt, stack[0], cfg.Craft.Output)
}

// applyFieldFlags merges proto.field=value flags into the layer stack. Each
// flag lands on the outermost layer of the named protocol, on top of any
// config preset for the same field.
func applyFieldFlags(stackLayers []probe.Layer, flags []string) error {
	for _, f := range flags {
		target, value, ok := strings.Cut(f, "=")
		if !ok {
			return fmt.Errorf("%w: field flag %q is not proto.field=value", core.ErrConfigInvalid, f)
		}
		proto, field, ok := strings.Cut(target, ".")
		if !ok || proto == "" || field == "" {
			return fmt.Errorf("%w: field flag %q is not proto.field=value", core.ErrConfigInvalid, f)
		}
		v, err := config.ParseFieldValue(value)
		if err != nil {
			return err
		}

		applied := false
		for i := range stackLayers {
			if stackLayers[i].Protocol != proto {
				continue
			}
			if stackLayers[i].Fields == nil {
				stackLayers[i].Fields = make(map[string]uint32)
			}
			stackLayers[i].Fields[field] = v
			applied = true
			break
		}
		if !applied {
			return fmt.Errorf("%w: field flag %q targets a protocol outside the stack",
				core.ErrProtocolNotFound, f)
		}
	}
	return nil
}

func parsePayload(text, hexStr string) ([]byte, error) {
	if text != "" && hexStr != "" {
		return nil, fmt.Errorf("%w: --payload and --payload-hex are mutually exclusive", core.ErrConfigInvalid)
	}
	if text != "" {
		return []byte(text), nil
	}
	if hexStr == "" {
		return nil, nil
	}
	payload, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("%w: payload hex: %v", core.ErrConfigInvalid, err)
	}
	return payload, nil
}

func writeProbe(out io.Writer, pkt []byte, outermost, format string) error {
	switch format {
	case "raw":
		_, err := out.Write(pkt)
		return err
	case "summary":
		if lt := summaryLayerType(outermost); lt != gopacket.LayerTypeZero {
			decoded := gopacket.NewPacket(pkt, lt, gopacket.Default)
			_, err := fmt.Fprint(out, decoded.String())
			return err
		}
		// No decoder registered for the outermost layer, fall back to hex.
	}
	_, err := fmt.Fprintln(out, hex.EncodeToString(pkt))
	return err
}

func summaryLayerType(proto string) gopacket.LayerType {
	switch proto {
	case "ipv4":
		return layers.LayerTypeIPv4
	case "icmpv4":
		return layers.LayerTypeICMPv4
	case "tcp":
		return layers.LayerTypeTCP
	case "udp":
		return layers.LayerTypeUDP
	default:
		return gopacket.LayerTypeZero
	}
}
