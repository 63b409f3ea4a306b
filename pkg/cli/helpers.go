/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hugepage"
	"github.com/NVIDIA/dpdk-provisioner/pkg/serializer"
)

const (
	outputFlagName        = "output"
	formatFlagName        = "format"
	hugePageSizeFlagName  = "hugepage-size"
	hugePageCountFlagName = "hugepage-count"
	strictFlagName        = "strict"
)

// Flags are built per command so that parsed state is never shared.

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    outputFlagName,
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
	}
}

func hugePageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  hugePageSizeFlagName,
			Usage: "huge page size to reserve at boot, 1-4 followed by M or G (e.g. 2M, 1G)",
		},
		&cli.IntFlag{
			Name:  hugePageCountFlagName,
			Usage: "number of huge pages to reserve at boot",
		},
	}
}

func strictFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  strictFlagName,
		Usage: "abort when an external command fails instead of logging and continuing",
	}
}

func formatFlag(def serializer.Format) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    formatFlagName,
		Aliases: []string{"t"},
		Value:   string(def),
		Usage:   fmt.Sprintf("output format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

// parseOutputFormat extracts and validates the output format from CLI flags.
// Returns the validated format or an error if the format is unknown.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	outFormat := serializer.Format(cmd.String(formatFlagName))
	if outFormat.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, valid formats are: %s",
			outFormat, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return outFormat, nil
}

// parseHugePages returns nil when neither huge page flag is set. The two
// flags must be given together.
func parseHugePages(cmd *cli.Command) (*hugepage.Config, error) {
	sizeSet, countSet := cmd.IsSet(hugePageSizeFlagName), cmd.IsSet(hugePageCountFlagName)
	switch {
	case !sizeSet && !countSet:
		return nil, nil
	case sizeSet != countSet:
		return nil, fmt.Errorf("--%s and --%s must be given together", hugePageSizeFlagName, hugePageCountFlagName)
	}
	return hugepage.New(cmd.String(hugePageSizeFlagName), cmd.Int(hugePageCountFlagName))
}

// parsePolicy applies --strict over the configured failure policy.
func parsePolicy(cmd *cli.Command, configured string) (hostexec.Policy, error) {
	if cmd.Bool(strictFlagName) {
		return hostexec.PolicyStrict, nil
	}
	return hostexec.ParsePolicy(configured)
}

// splitNICs accepts NICs as repeated flags, or separated by commas or
// whitespace within one value.
func splitNICs(values []string) []string {
	var nics []string
	for _, v := range values {
		nics = append(nics, strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})...)
	}
	return nics
}

// writeResult serializes v to the --output destination. Without --format,
// a file destination picks the format from its extension.
func writeResult(ctx context.Context, cmd *cli.Command, v any) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	path := cmd.String(outputFlagName)
	if !cmd.IsSet(formatFlagName) && path != "" && path != serializer.StdoutURI {
		outFormat = serializer.FormatFromPath(path)
	}

	ser, err := serializer.NewFileWriterOrStdout(outFormat, path)
	if err != nil {
		return err
	}
	defer func() {
		if err := ser.Close(); err != nil {
			slog.Warn("failed to close serializer", "error", err)
		}
	}()

	return ser.Serialize(ctx, v)
}
