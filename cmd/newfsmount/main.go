// Command newfsmount mounts a newfs volume at a mountpoint using FUSE.
package main

import (
	"log"
	"os"

	fusefs "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/urfave/cli/v2"

	"github.com/chenyangzhu1/newfs"
	"github.com/chenyangzhu1/newfs/newfsfuse"
)

func main() {
	app := &cli.App{
		Name:  "newfsmount",
		Usage: "mount a newfs volume",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "device",
				Value: "./newfs.img",
				Usage: "path to the backing device image",
			},
			&cli.UintFlag{
				Name:  "io-size",
				Value: 512,
				Usage: "device I/O unit size in bytes",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable go-fuse debug logging",
			},
		},
		ArgsUsage: "MOUNTPOINT",
		Action:    mount,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("newfsmount: %s", err)
	}
}

func mount(c *cli.Context) error {
	mountpoint := c.Args().First()
	if mountpoint == "" {
		return cli.Exit("missing MOUNTPOINT argument", 1)
	}

	drv := newfs.NewFileDriver(uint32(c.Uint("io-size")))
	sb, err := newfs.Mount(drv, c.String("device"))
	if err != nil {
		return err
	}

	server, err := fusefs.Mount(mountpoint, newfsfuse.Root(sb), &fusefs.Options{
		MountOptions: fuse.MountOptions{
			Debug: c.Bool("debug"),
		},
	})
	if err != nil {
		return err
	}

	server.Wait()

	return sb.Unmount()
}
