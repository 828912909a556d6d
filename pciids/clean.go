package pciids

import (
	"golang.org/x/text/encoding/charmap"
	"regexp"
	"strconv"
	"strings"
)

// Word boundaries around an abbreviated phrase. The delimiters are kept.
const (
	wordStart = `( |^|\(|\[|\{|/)`
	wordEnd   = `( |$|\)|\]|\})`
)

type abbr struct {
	re   *regexp.Regexp
	repl string
}

// newAbbr compiles a phrase to be replaced wherever it stands as a whole word.
// Group 1 is the leading delimiter, so groups of the phrase start at 2
// and repl refers to them as ${2} and up.
func newAbbr(phrase, repl string) abbr {
	re := regexp.MustCompile(`(?i)` + wordStart + `(?:` + phrase + `)` + wordEnd)
	return abbr{re, "${1}" + repl + "${" + strconv.Itoa(re.NumSubexp()) + "}"}
}

var deviceAbbrs = []abbr{
	newAbbr(`100Base-T`, `FE`),
	newAbbr(`100Base-TX`, `FE`),
	newAbbr(`1000Base-T`, `GbE`),
	newAbbr(`Acceleration`, `Accel.`),
	newAbbr(`Accelerator`, `Accel.`),
	newAbbr(`Alert on LAN`, `AoL`),
	newAbbr(`Chipset Family`, `Chipset`),
	newAbbr(`Chipset Graphics`, `iGPU`),
	newAbbr(`Connection`, `Conn.`),
	newAbbr(`DECchip`, ``),
	newAbbr(`Dual Port`, `2-port`),
	newAbbr(`Fast Ethernet`, `FE`),
	newAbbr(`Fibre Channel`, `FC`),
	newAbbr(`Function`, `Func.`),
	newAbbr(`([0-9]{1,3})G Ethernet`, `${2}GbE`),
	newAbbr(`(?:([0-9]{1,3}) ?)?(?:G(?:bit|ig) Ethernet|GbE)`, `${2}GbE`),
	newAbbr(`Graphics Processor`, `GPU`),
	newAbbr(`High Definition Audio`, `HDA`),
	newAbbr(`Host Adapter`, `HBA`),
	newAbbr(`Host Bus Adapter`, `HBA`),
	newAbbr(`Host Controller`, `HC`),
	newAbbr(`Input/Output`, `I/O`),
	newAbbr(`Integrated ([^\s]+) Graphics`, `${2} iGPU`),
	newAbbr(`Integrated Graphics`, `iGPU`),
	newAbbr(`([0-9]) lane`, `${2}-lane`),
	newAbbr(`Local Area Network`, `LAN`),
	newAbbr(`Low Pin Count`, `LPC`),
	newAbbr(`Memory Controller Hub`, `MCH`),
	newAbbr(`Network Adapter`, `NIC`),
	newAbbr(`Network (?:Interface )?Card`, `NIC`),
	newAbbr(`Network (?:Interface )?Controller`, `NIC`),
	newAbbr(`NVM Express`, `NVMe`),
	newAbbr(`Parallel ATA`, `PATA`),
	newAbbr(`PCI-E`, `PCIe`),
	newAbbr(`PCI Express`, `PCIe`),
	newAbbr(`PCI[- ]to[- ]PCI`, `PCI-PCI`),
	newAbbr(`Platform Controller Hub`, `PCH`),
	newAbbr(`([0-9]) port`, `${2}-port`),
	newAbbr(`Processor Graphics`, `iGPU`),
	newAbbr(`Quad Port`, `4-port`),
	newAbbr(`Serial ATA`, `SATA`),
	newAbbr(`Serial Attached SCSI`, `SAS`),
	newAbbr(`Single Port`, `1-port`),
	newAbbr(`USB ?([0-9])\.0`, `USB${2}`),
	newAbbr(`USB ?([0-9])\.[0-9] ?Gen([0-9x]+)`, `USB${2}.${3}`),
	newAbbr(`USB ?([0-9]\.[0-9])`, `USB${2}`),
	newAbbr(`Virtual Machine`, `VM`),
	newAbbr(`Wake on LAN`, `WoL`),
	newAbbr(`Wireless LAN`, `WLAN`),
}

var (
	// "Gigabit", "10 Megabit" and friends become "Gbit", "10Mbit".
	deviceBitRate = regexp.MustCompile(`(?i)` + wordStart + `(?:([0-9]{1,4}) )?(?:(K)(?:ilo)?|(M)(?:ega)?|(G)(?:iga)?)bit` + wordEnd)
	deviceSuffix  = regexp.MustCompile(`(?i) (?:Adapter|Card|Device|(?:Host )?Controller)( (?: [0-9#]+)?|$|\)|\]|\})`)

	vendorAbbr   = regexp.MustCompile(` \[([^\]]+)\]`)
	vendorSuffix = regexp.MustCompile(`(?i) (?:Semiconductors?|(?:Micro)?electronics?|Interactive|Technolog(?:y|ies)|(?:Micro)?systems|Computer(?: works)?|Products|Group|and subsidiaries|of(?: America)?|Co(?:rp(?:oration)?|mpany)?|Inc|LLC|Ltd|GmbH|AB|AG|SA|(?:\(|\[|\{).*)$`)
)

// Applied to the raw vendor name before anything else.
var vendorForce = map[string]string{
	"National Semiconductor Corporation": "NSC",
}

// Applied once the suffixes are gone.
var vendorFinal = map[string]string{
	"Chips and":                 "C&T",
	"Digital Equipment":         "DEC",
	"Microchip Technology/SMSC": "Microchip/SMSC",
	"NVidia/SGS Thomson":        "NVIDIA/ST",
	"S3 Graphics":               "S3",
	"Silicon Integrated":        "SiS",
	"Silicon Motion":            "SMI",
	"STMicroelectronics":        "ST",
	"Texas Instruments":         "TI",
	"VMWare":                    "VMware",
}

// CleanVendor shortens a vendor name: "Intel Corporation" becomes "Intel",
// and a name carrying its own abbreviation, as in "Advanced Micro Devices,
// Inc. [AMD]", becomes that abbreviation.
func CleanVendor(name string) string {
	if forced, ok := vendorForce[name]; ok {
		return forced
	}

	name = strings.ReplaceAll(name, " / ", "/")
	if m := vendorAbbr.FindStringSubmatch(name); m != nil {
		return m[1]
	}

	for {
		name = strings.TrimRight(name, " ,.")
		loc := vendorSuffix.FindStringIndex(name)
		if loc == nil {
			break
		}
		name = name[:loc[0]]
	}
	if final, ok := vendorFinal[name]; ok {
		name = final
	}
	return collapseSpaces(name)
}

// CleanDevice shortens a device name with common abbreviations
// ("Host Controller" to "HC", "PCI Express" to "PCIe") and drops generic
// suffixes such as "Controller". A leading copy of vendor, if not empty,
// is removed too.
func CleanDevice(name, vendor string) string {
	name = deviceBitRate.ReplaceAllString(name, "${1}${2}${3}${4}${5}bit${6}")
	for _, a := range deviceAbbrs {
		name = a.re.ReplaceAllString(name, a.repl)
	}
	name = deviceSuffix.ReplaceAllString(name, "${1}")

	if vendor != "" {
		name = strings.TrimPrefix(name, vendor)
	}
	return collapseSpaces(name)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Encode converts name to code page 437, the character set of the firmware
// text console, dropping characters it cannot represent and NUL bytes.
// The result is cut to limit bytes when limit is positive.
func Encode(name string, limit int) []byte {
	out := make([]byte, 0, len(name))
	for _, r := range name {
		if limit > 0 && len(out) == limit {
			break
		}
		b, ok := charmap.CodePage437.EncodeRune(r)
		if !ok || b == 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}
