package commands

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dvloznov/voice-expense-tracker/internal/app"
)

var errReceiptsDisabled = errors.New("receipts need GCS_BUCKET")

func newReceiptCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Upload or delete receipt images",
	}
	cmd.AddCommand(newReceiptUploadCommand(e))
	cmd.AddCommand(newReceiptDeleteCommand(e))
	return cmd
}

func newReceiptUploadCommand(e *env) *cobra.Command {
	var uid, file string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a receipt image and print its public URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening receipt: %w", err)
			}
			defer f.Close()

			c, err := receiptComponents(cmd, e)
			if err != nil {
				return err
			}
			defer c.Close()

			url, err := c.Receipts.Upload(cmd.Context(), uid, filepath.Base(file), mime.TypeByExtension(filepath.Ext(file)), f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "user id (required)")
	_ = cmd.MarkFlagRequired("uid")
	cmd.Flags().StringVar(&file, "file", "", "path to the image (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newReceiptDeleteCommand(e *env) *cobra.Command {
	var uid, url string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a receipt by its URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := receiptComponents(cmd, e)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Receipts.Delete(cmd.Context(), uid, url); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "user id (required)")
	_ = cmd.MarkFlagRequired("uid")
	cmd.Flags().StringVar(&url, "url", "", "receipt URL (required)")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func receiptComponents(cmd *cobra.Command, e *env) (*app.Components, error) {
	c, err := e.components(cmd.Context())
	if err != nil {
		return nil, err
	}
	if c.Receipts == nil {
		c.Close()
		return nil, errReceiptsDisabled
	}
	return c, nil
}
