// Command routectl is a small CLI over the routetable library, exposing
// list, default, add, delete, and listen subcommands. It is a convenience
// wrapper, not part of the library's contract.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	routetable "github.com/wesleywu/route-table"
)

var (
	gateway string
	ifindex uint32
	table   uint8
)

func main() {
	root := &cobra.Command{
		Use:   "routectl",
		Short: "Inspect and modify the host's IPv4/IPv6 routing table",
	}

	root.AddCommand(
		newListCmd(),
		newDefaultCmd(),
		newAddCmd(),
		newDeleteCmd(),
		newListenCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every route currently installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := routetable.New()
			if err != nil {
				return err
			}
			defer h.Close()

			routes, err := h.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range routes {
				fmt.Println(r.String())
			}
			return nil
		},
	}
}

func newDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Show the host's default route, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := routetable.New()
			if err != nil {
				return err
			}
			defer h.Close()

			r, err := h.DefaultRoute(cmd.Context())
			if err != nil {
				return err
			}
			if r == nil {
				fmt.Println("no default route")
				return nil
			}
			fmt.Println(r.String())
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <destination>/<prefix>",
		Short: "Add a route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRouteArg(args[0])
			if err != nil {
				return err
			}
			h, err := routetable.New()
			if err != nil {
				return err
			}
			defer h.Close()
			return h.Add(cmd.Context(), r)
		},
	}
	addRouteFlags(cmd)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <destination>/<prefix>",
		Short: "Delete a route matching destination and prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRouteArg(args[0])
			if err != nil {
				return err
			}
			h, err := routetable.New()
			if err != nil {
				return err
			}
			defer h.Close()
			return h.Delete(cmd.Context(), r)
		},
	}
	addRouteFlags(cmd)
	return cmd
}

func newListenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Stream route change events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := routetable.New()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			fmt.Println("listening for route events, press Ctrl+C to stop...")
			for change := range h.RouteListenStream(ctx) {
				fmt.Printf("%s: %s\n", change.Type, change.Route.String())
			}
			return nil
		},
	}
}

func addRouteFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&gateway, "gateway", "", "next-hop gateway address")
	cmd.Flags().Uint32Var(&ifindex, "ifindex", 0, "outgoing interface index")
	cmd.Flags().Uint8Var(&table, "table", 0, "Linux routing table id (default: main)")
}

func parseRouteArg(arg string) (*routetable.Route, error) {
	dst, prefixStr, err := splitCIDRLike(arg)
	if err != nil {
		return nil, err
	}
	prefix, err := strconv.ParseUint(prefixStr, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid prefix %q: %w", prefixStr, err)
	}

	ip := net.ParseIP(dst)
	if ip == nil {
		return nil, fmt.Errorf("invalid destination address %q", dst)
	}

	r := routetable.NewRoute(ip, uint8(prefix))
	if gateway != "" {
		gw := net.ParseIP(gateway)
		if gw == nil {
			return nil, fmt.Errorf("invalid gateway address %q", gateway)
		}
		r.WithGateway(gw)
	}
	if ifindex != 0 {
		r.WithIfIndex(ifindex)
	}
	if table != 0 {
		r.WithTable(table)
	}
	return r, nil
}

func splitCIDRLike(arg string) (dst, prefix string, err error) {
	for i := len(arg) - 1; i >= 0; i-- {
		if arg[i] == '/' {
			return arg[:i], arg[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("expected <destination>/<prefix>, got %q", arg)
}
