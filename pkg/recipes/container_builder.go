package recipes

import "lab47.dev/recipe/pkg/descriptor"

const containerBuilderRepo = "https://code.ornl.gov/olcf/container-builder.git"

// ContainerBuilder describes the container-builder client hosted at ORNL.
// A tagged CI pipeline adds a version pinned to that tag.
func ContainerBuilder(env descriptor.Env) *descriptor.Descriptor {
	b := descriptor.New("container-builder", "container-builder Client").
		Homepage("https://code.ornl.gov/olcf/container-builder.git").
		URL("https://code.ornl.gov/olcf/container-builder/archive/master.zip").
		Version(descriptor.GitVersion("master", containerBuilderRepo))

	if tag := env.CICommitTag; tag != "" {
		b.Version(descriptor.GitTagVersion(tag, containerBuilderRepo, tag))
	}

	return b.DependsOn("boost@1.66.0+coroutine").Build()
}

// LegacyContainerBuilder is the original GitHub hosted package.
func LegacyContainerBuilder(env descriptor.Env) *descriptor.Descriptor {
	return descriptor.New("containerbuilder", "ContainerBuilder Client").
		Homepage("https://github.com/AdamSimpson/ContainerBuilder").
		URL("https://github.com/AdamSimpson/ContainerBuilder/archive/master.zip").
		Version(descriptor.Version("0.0.0")).
		DependsOn("boost@1.65.1").
		Build()
}
