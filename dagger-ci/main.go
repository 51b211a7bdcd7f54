// CI pipeline for the richtext editor core
//
// Runs the test suite, generates the error code reference with cmd/docsgen and
// builds the cmd/richtext console host for linux/amd64 and linux/arm64.
// Images carry the binary only: the host reads commands from stdin.

package main

import (
	"context"
	"dagger/richtext/internal/dagger"
	"fmt"
)

type Richtext struct{}

func (m *Richtext) GoBuildEnv(source *dagger.Directory) *dagger.Container {
	goCache := dag.CacheVolume("go")
	return dag.Container().
		From("golang:alpine").
		WithDirectory("/src", source).
		WithWorkdir("/src").
		WithEnvVariable("GOOS", "linux").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", goCache).
		WithExec([]string{"go", "mod", "tidy"})
}

// Test запускает тесты всех пакетов модуля.
func (m *Richtext) Test(ctx context.Context, source *dagger.Directory) (string, error) {
	return m.GoBuildEnv(source).
		WithExec([]string{"go", "vet", "./..."}).
		WithExec([]string{"go", "test", "-count=1", "./..."}).
		Stdout(ctx)
}

// Docs генерирует таблицу кодов ошибок редактора.
func (m *Richtext) Docs(source *dagger.Directory) *dagger.File {
	return m.GoBuildEnv(source).
		WithExec([]string{"go", "run", "./cmd/docsgen", "-out", "/build/editor_errors.md"}).
		File("/build/editor_errors.md")
}

func (m *Richtext) HostEnv(platform dagger.Platform, appBin *dagger.File, docs *dagger.File) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{
		Platform: platform,
	}).
		From("alpine").
		WithWorkdir("/app").
		WithFile("/app/richtext", appBin).
		WithFile("/app/editor_errors.md", docs).
		WithEntrypoint([]string{"/app/richtext"})
}

func (m *Richtext) Build(version string, source *dagger.Directory) []*dagger.Container {
	buildMatrix := []struct {
		Arch     string
		BinName  string
		Platform dagger.Platform
	}{
		{
			Arch:     "amd64",
			BinName:  "/build/richtext-linux",
			Platform: dagger.Platform("linux/amd64"),
		},
		{
			Arch:     "arm64",
			BinName:  "/build/richtext-linux-arm64",
			Platform: dagger.Platform("linux/arm64/v8"),
		},
	}

	docs := m.Docs(source)

	var images []*dagger.Container
	for _, buildParam := range buildMatrix {
		builder := m.GoBuildEnv(source).
			WithEnvVariable("GOARCH", buildParam.Arch).
			WithExec([]string{"go", "build", "-o", buildParam.BinName, "-ldflags", fmt.Sprintf("-s -w -X main.version=%s", version), "./cmd/richtext"})

		image := m.HostEnv(buildParam.Platform, builder.File(buildParam.BinName), docs).
			WithLabel("org.opencontainers.image.source", "https://github.com/aisa-it/aiplan-richtext").
			WithLabel("org.opencontainers.image.licenses", "MPL-2.0").
			WithAnnotation("org.opencontainers.image.source", "https://github.com/aisa-it/aiplan-richtext")
		images = append(images, image)
	}
	return images
}

func (m *Richtext) Publish(
	ctx context.Context,
	images []*dagger.Container,
	registrySecret *dagger.Secret,
	registryUser string,
	imageName string,
) (string, error) {
	return dag.Container().
		WithRegistryAuth("ghcr.io", registryUser, registrySecret).
		Publish(ctx, "ghcr.io/"+imageName, dagger.ContainerPublishOpts{PlatformVariants: images})
}

func (m *Richtext) Export(
	ctx context.Context,
	images []*dagger.Container,
	imageName string,
) (string, error) {
	return dag.Container().
		Export(ctx, imageName, dagger.ContainerExportOpts{PlatformVariants: images})
}

func (m *Richtext) BuildLocal(ctx context.Context, name string, source *dagger.Directory) (string, error) {
	return m.Export(ctx, m.Build("v0.1.0", source), name)
}

// Release прогоняет тесты и публикует образ с тегами version и latest.
func (m *Richtext) Release(ctx context.Context, version string, source *dagger.Directory,
	registrySecret *dagger.Secret,
	registryUser string,
	imageName string,
) error {
	if _, err := m.Test(ctx, source); err != nil {
		return err
	}

	images := m.Build(version, source)
	for _, tag := range []string{version, "latest"} {
		ref, err := m.Publish(ctx, images, registrySecret, registryUser, fmt.Sprintf("%s:%s", imageName, tag))
		if err != nil {
			return err
		}
		fmt.Println(ref)
	}
	return nil
}
