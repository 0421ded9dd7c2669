/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/urfave/cli/v3"

	"github.com/dasm6502/dasmpkg/pkg/checksum"
	"github.com/dasm6502/dasmpkg/pkg/defaults"
	apperrors "github.com/dasm6502/dasmpkg/pkg/errors"
	"github.com/dasm6502/dasmpkg/pkg/header"
	"github.com/dasm6502/dasmpkg/pkg/oci"
	"github.com/dasm6502/dasmpkg/pkg/pipeline"
	"github.com/dasm6502/dasmpkg/pkg/recipe"
	"github.com/dasm6502/dasmpkg/pkg/serializer"
)

// Manifest annotations carrying the package info.
const (
	annotationIncludeDirs = "io.dasm6502.package.includedirs"
	annotationDefines     = "io.dasm6502.package.defines"
)

// publishDocument is the output of the publish command.
type publishDocument struct {
	header.Header `json:",inline" yaml:",inline"`

	Reference   string             `json:"reference" yaml:"reference"`
	Digest      string             `json:"digest" yaml:"digest"`
	StorePath   string             `json:"storePath" yaml:"storePath"`
	Pushed      bool               `json:"pushed" yaml:"pushed"`
	PackageInfo recipe.PackageInfo `json:"packageInfo" yaml:"packageInfo"`
}

func publishCmd() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Package the staged Resources as an OCI artifact",
		Description: `Verifies the staged files against Resources/checksums.txt, reads
package-info.yaml from the workspace and writes an OCI image layout to
<workspace>/oci-layout, which is unpacked again and checked against
checksums.txt. The package info is recorded as manifest
annotations. With --push the artifact is copied to the registry using
Docker credentials.

  dasmpkg publish --workspace ./build --target oci://ghcr.io/dasm6502/6502dasm:1.0.0 --push`,
		Flags: append([]cli.Flag{
			workspaceFlag(),
			&cli.StringFlag{
				Name:     "target",
				Required: true,
				Usage:    "Artifact reference (oci://registry/repository[:tag]); tag defaults to the recipe version",
			},
			&cli.BoolFlag{
				Name:  "push",
				Usage: "Push the artifact to the registry after packaging",
			},
			plainHTTPFlag(),
			insecureTLSFlag(),
		}, outputFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ws, err := cfg.ResolveWorkspace()
			if err != nil {
				return err
			}

			d := recipe.Default()
			ref, err := oci.ParseReference(cmd.String("target"))
			if err != nil {
				return err
			}
			if ref.Tag == "" {
				ref = ref.WithTag(d.Version.String())
			}

			ctx, cancel := context.WithTimeout(ctx, defaults.PublishTimeout)
			defer cancel()

			doc, err := publish(ctx, d, ws, ref, publishOptions{
				push:        cmd.Bool("push"),
				plainHTTP:   cfg.Registry.PlainHTTP,
				insecureTLS: cfg.Registry.InsecureTLS,
			})
			if err != nil {
				return err
			}
			return writeOutput(ctx, format, cmd.String("output"), doc)
		},
	}
}

type publishOptions struct {
	push        bool
	plainHTTP   bool
	insecureTLS bool
}

func publish(ctx context.Context, d *recipe.Descriptor, ws *recipe.Workspace, ref *oci.Reference, opts publishOptions) (*publishDocument, error) {
	bad, err := checksum.Verify(ctx, ws.ResourceDir)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeNotFound,
			"no staged resources to publish; run import first", err,
			map[string]any{"path": checksum.Path(ws.ResourceDir)})
	}
	if len(bad) > 0 {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"staged resources do not match checksums.txt; run import again",
			map[string]any{"files": bad})
	}

	infoPath := filepath.Join(ws.Root, pipeline.PackageInfoFile)
	info, err := serializer.FromFile[recipe.PackageInfo](infoPath)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.CodeOf(err),
			"package info not found; run the recipe first", err, map[string]any{"path": infoPath})
	}

	slog.Info("packaging OCI artifact",
		"reference", ref.ImageReference(),
		"source", ws.ResourceDir,
		"push", opts.push)

	pkg, err := oci.Package(ctx, oci.PackageOptions{
		SourceDir:   ws.ResourceDir,
		OutputDir:   ws.Root,
		Registry:    ref.Registry,
		Repository:  ref.Repository,
		Tag:         ref.Tag,
		Annotations: annotations(d, *info),
	})
	if err != nil {
		return nil, err
	}
	if err := verifyArtifact(ctx, pkg.StorePath, ref.Tag, ws.ResourceDir); err != nil {
		return nil, err
	}

	doc := &publishDocument{
		Reference:   pkg.Reference,
		Digest:      pkg.Digest,
		StorePath:   pkg.StorePath,
		PackageInfo: *info,
	}
	doc.Init(header.KindPackageReport, version)

	if opts.push {
		res, err := oci.PushFromStore(ctx, pkg.StorePath, oci.PushOptions{
			Registry:    ref.Registry,
			Repository:  ref.Repository,
			Tag:         ref.Tag,
			PlainHTTP:   opts.plainHTTP,
			InsecureTLS: opts.insecureTLS,
		})
		if err != nil {
			return nil, err
		}
		doc.Pushed = true
		doc.Digest = res.Digest
		slog.Info("OCI artifact pushed", "reference", res.Reference, "digest", res.Digest)
	}

	return doc, nil
}

// verifyArtifact unpacks the tagged artifact from the local layout and checks
// that it matches checksums.txt and holds the same files as sourceDir.
func verifyArtifact(ctx context.Context, storePath, tag, sourceDir string) error {
	dir, err := os.MkdirTemp("", "dasmpkg-verify-*")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create verification directory", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	if _, err := oci.PullFromStore(ctx, storePath, tag, dir); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to unpack packaged artifact", err)
	}
	bad, err := checksum.Verify(ctx, dir)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "packaged artifact has no readable checksums", err)
	}
	if len(bad) > 0 {
		return apperrors.NewWithContext(apperrors.ErrCodeInternal,
			"packaged artifact does not match checksums.txt", map[string]any{"files": bad})
	}

	packed, err := listFiles(dir)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to list packaged artifact", err)
	}
	staged, err := listFiles(sourceDir)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to list staged resources", err)
	}
	if !slices.Equal(packed, staged) {
		return apperrors.NewWithContext(apperrors.ErrCodeInternal,
			"staged resources changed while packaging",
			map[string]any{"packaged": packed, "staged": staged})
	}

	slog.Debug("packaged artifact verified", "files", len(packed), "tag", tag)
	return nil
}

// listFiles returns the sorted slash-separated relative paths of regular files under dir.
func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, de fs.DirEntry, err error) error {
		if err != nil || de.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	slices.Sort(files)
	return files, err
}

// annotations describes the package on the manifest. The title annotation is
// left out: the file store writes any titled descriptor, the manifest
// included, into the directory being packaged.
func annotations(d *recipe.Descriptor, info recipe.PackageInfo) map[string]string {
	a := map[string]string{
		ociv1.AnnotationVersion:     d.Version.String(),
		ociv1.AnnotationDescription: d.Description,
		ociv1.AnnotationCreated:     time.Now().UTC().Format(time.RFC3339),
		annotationIncludeDirs:       strings.Join(info.IncludeDirs, ";"),
		annotationDefines:           strings.Join(info.Defines, ";"),
	}
	if d.Author != "" {
		a[ociv1.AnnotationAuthors] = d.Author
	}
	if d.URL != "" {
		a[ociv1.AnnotationSource] = d.URL
	}
	return a
}
