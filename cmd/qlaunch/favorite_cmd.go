package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/igusev/qlaunch/internal/model"
)

var favoriteCmd = &cobra.Command{
	Use:   "favorite",
	Short: "Pin results by their namespace:id key",
}

var favoriteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pinned results",
	Args:  cobra.NoArgs,
	RunE:  runFavoriteList,
}

var favoriteAddCmd = &cobra.Command{
	Use:     "add <namespace:id>",
	Short:   "Pin a result",
	Example: `  qlaunch favorite add apps:com.spotify.music`,
	Args:    cobra.ExactArgs(1),
	RunE:    runFavoriteAdd,
}

var favoriteRemoveCmd = &cobra.Command{
	Use:   "remove <namespace:id>",
	Short: "Unpin a result",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoriteRemove,
}

func init() {
	favoriteCmd.AddCommand(favoriteListCmd, favoriteAddCmd, favoriteRemoveCmd)
	rootCmd.AddCommand(favoriteCmd)
}

func runFavoriteList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	results, err := l.Favorites(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%-32s %s\n", model.Key(r), model.DisplayString(r))
	}
	if len(results) == 0 {
		printMuted(cmd.OutOrStdout(), "No favorites")
	}
	return nil
}

func runFavoriteAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.AddFavorite(ctx, args[0]); err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), "Pinned "+args[0])
	return nil
}

func runFavoriteRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	l, err := openLauncher(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	removed, err := l.RemoveFavorite(ctx, args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%s is not pinned", args[0])
	}
	printSuccess(cmd.OutOrStdout(), "Unpinned "+args[0])
	return nil
}
