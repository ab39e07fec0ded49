package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ValentinKolb/mmkv/lib/store"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := localStore.Set(key, []byte(value)); err != nil {
				return err
			}
			if err := save(); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	setECmd = &cobra.Command{
		Use:   "setE [key] [value] [expireIn] [deleteIn]",
		Short: "Sets the value for a key with expiration and deletion time",
		Long: `Sets the value for a key with expiration and deletion time.
expireIn and deleteIn count write operations, 0 disables them.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			expireIn, deleteIn, err := parseTTL(args[2], args[3])
			if err != nil {
				return err
			}
			if err := localStore.SetE(key, []byte(value), expireIn, deleteIn); err != nil {
				return err
			}
			if err := save(); err != nil {
				return err
			}
			fmt.Println("setE successfully")
			return nil
		},
	}
	setEIfUnsetCmd = &cobra.Command{
		Use:   "setEIfUnset [key] [value] [expireIn] [deleteIn]",
		Short: "Sets the value for a key with expiration and deletion time if the key is not already set",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			expireIn, deleteIn, err := parseTTL(args[2], args[3])
			if err != nil {
				return err
			}
			err = localStore.SetEIfUnset(key, []byte(value), expireIn, deleteIn)
			if store.Code(err) == store.RetCKeyExists {
				fmt.Printf("key=%s already set\n", key)
				return nil
			} else if err != nil {
				return err
			}
			if err := save(); err != nil {
				return err
			}
			fmt.Println("setEIfUnset successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			resp, ok, err := localStore.Get(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			return nil
		},
	}
	exprCmd = &cobra.Command{
		Use:   "expr [key]",
		Short: "Expires the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := localStore.Expire(key); err != nil {
				return err
			}
			if err := save(); err != nil {
				return err
			}
			fmt.Println("expire successfully")
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			err := localStore.Delete(key)
			if store.Code(err) == store.RetCKeyNotFound {
				fmt.Printf("key=%s not found\n", key)
				return nil
			} else if err != nil {
				return err
			}
			if err := save(); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			found, err := localStore.Has(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t\n", key, found)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the database as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := localStore.GetDBInfo()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
	metricsCmd = &cobra.Command{
		Use:   "metrics",
		Short: "Prints the metrics of the database in the Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return localStore.WriteMetrics(os.Stdout)
		},
	}
)

func parseTTL(expireArg, deleteArg string) (expireIn, deleteIn uint64, err error) {
	expireIn, err = strconv.ParseUint(expireArg, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("expireIn must be a number: %w", err)
	}
	deleteIn, err = strconv.ParseUint(deleteArg, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("deleteIn must be a number: %w", err)
	}
	return expireIn, deleteIn, nil
}
