package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pior/kvclient"
	"github.com/pior/kvclient/driver/redigo"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Get the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := kvclient.Do(cmd.Context(), client, kvclient.Get(args[0]))
			if err != nil {
				return err
			}
			fmt.Println(format(v))
			return nil
		},
	}

	setCmd = &cobra.Command{
		Use:   "set [key] [value] [NX|XX] [EX seconds|PX milliseconds|PXAT timestamp|KEEPTTL]",
		Short: "Set the value of a key",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := redigo.ParseSetOptions(args[2:])
			if err != nil {
				return err
			}
			written, err := kvclient.Do(cmd.Context(), client, kvclient.Set(args[0], args[1], opts))
			if err != nil {
				return err
			}
			if !written {
				fmt.Println("(not set)")
				return nil
			}
			fmt.Println("OK")
			return nil
		},
	}

	delCmd = &cobra.Command{
		Use:   "del [key...]",
		Short: "Delete keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := kvclient.Do(cmd.Context(), client, kvclient.Del(args...))
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}

	incrCmd = &cobra.Command{
		Use:   "incr [key] [delta]",
		Short: "Increment the integer value of a key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta := int64(1)
			if len(args) == 2 {
				d, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("delta must be an integer: %w", err)
				}
				delta = d
			}
			n, err := kvclient.Do(cmd.Context(), client, kvclient.IncrBy(args[0], delta))
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}

	mgetCmd = &cobra.Command{
		Use:   "mget [key...]",
		Short: "Get the values of several keys",
		Long:  "Get the values of several keys. On a cluster the keys are split per slot and the replies merged back in order.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := kvclient.Do(cmd.Context(), client, kvclient.MGet(args...))
			if err != nil {
				return err
			}
			for i, v := range values {
				fmt.Printf("%s: %s\n", args[i], format(v))
			}
			return nil
		},
	}

	ttlCmd = &cobra.Command{
		Use:   "ttl [key]",
		Short: "Get the time to live of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := kvclient.Do(cmd.Context(), client, kvclient.PTTL(args[0]))
			if err != nil {
				return err
			}
			switch ttl {
			case -1:
				fmt.Println("(no expiry)")
			case -2:
				fmt.Println("(nil)")
			default:
				fmt.Println(ttl)
			}
			return nil
		},
	}

	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Ping the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pong, err := kvclient.Do(cmd.Context(), client, kvclient.Ping())
			if err != nil {
				return err
			}
			fmt.Println(pong)
			return nil
		},
	}

	masterCmd = &cobra.Command{
		Use:   "master [name]",
		Short: "Ask the sentinels for the address of a primary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := kvclient.Do(cmd.Context(), client, kvclient.SentinelGetMasterAddrByName(args[0]))
			if err != nil {
				return err
			}
			fmt.Println(format(addr))
			return nil
		},
	}

	slotCmd = &cobra.Command{
		Use:   "slot [key]",
		Short: "Show the cluster hash slot of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := kvclient.Do(cmd.Context(), client, kvclient.ClusterKeySlot(args[0]))
			if err != nil {
				return err
			}
			fmt.Println(slot)
			return nil
		},
	}
)

// format renders a converted reply the way redis-cli does.
func format(v any) string {
	switch v := v.(type) {
	case kvclient.Optional[string]:
		if !v.Found {
			return "(nil)"
		}
		return strconv.Quote(v.Value)
	case kvclient.Optional[int64]:
		if !v.Found {
			return "(nil)"
		}
		return strconv.FormatInt(v.Value, 10)
	case kvclient.Optional[float64]:
		if !v.Found {
			return "(nil)"
		}
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case string:
		return strconv.Quote(v)
	case *kvclient.CommandError:
		return "(error) " + v.Err.Error()
	case error:
		return "(error) " + v.Error()
	}
	return fmt.Sprint(v)
}
