// Read command resolves a tag and prints one decoded element.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	readType   string
	readOffset uint32
	readAttrs  string
)

var readCmd = &cobra.Command{
	Use:   "read <key>",
	Short: "Read one value from a tag",
	Long: `Read resolves a tag through the registry, refreshes it from the
device, and prints the element at the given offset.

Example:
  tagmon read plc1/Motor1 --type uint16
  tagmon read plc1/Line3/Temp --type float32 --offset 8`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringVarP(&readType, "type", "t", "uint32", "element type ("+valueTypesStr+")")
	readCmd.Flags().Uint32VarP(&readOffset, "offset", "o", 0, "byte offset into the tag buffer")
	readCmd.Flags().StringVar(&readAttrs, "attrs", "", "engine attribute string (default from config)")
}

func runRead(cmd *cobra.Command, args []string) error {
	key := args[0]
	ctx := context.Background()

	ref, err := reg.GetOrCreate(ctx, key, tagAttributes(readAttrs))
	if err != nil {
		return fmt.Errorf("resolve %q: %w", key, err)
	}
	defer ref.Close()

	out, err := readTyped(ctx, ref.Entry(), readType, readOffset)
	if err != nil {
		return fmt.Errorf("read %q: %w", key, err)
	}
	fmt.Println(out)
	return nil
}
