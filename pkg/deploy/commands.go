package deploy

import (
	"path"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/arthur-debert/sshrelease/pkg/config"
	"github.com/arthur-debert/sshrelease/pkg/paths"
)

// q quotes a shell argument only when it needs quoting.
func q(arg string) string {
	return shellescape.Quote(arg)
}

func and(commands ...string) string {
	return strings.Join(commands, " && ")
}

func mkdirCommand(dir string) string {
	return "mkdir -p " + q(dir)
}

func extractCommand(cfg *config.DeploymentConfig) string {
	archive := path.Base(cfg.ArchiveName)
	var unpack string
	switch {
	case cfg.ArchiveType == config.ArchiveZip:
		unpack = "unzip -q " + q(archive)
	case cfg.Gzip:
		unpack = "tar -xzvf " + q(archive)
	default:
		unpack = "tar -xvf " + q(archive)
	}
	return and("cd "+q(cfg.ReleasePath), unpack, "rm -f "+q(archive))
}

func materializeCommand(cfg *config.DeploymentConfig) string {
	return and(
		mkdirCommand(cfg.ReleasePath),
		"cp -a "+q(cfg.SynchronizedPath()+"/.")+" "+q(cfg.ReleasePath),
	)
}

// sharedLink computes the link of one share entry. The relative target
// climbs from the link's directory up to the deploy path.
func sharedLink(cfg *config.DeploymentConfig, name string) SharedLink {
	entry := cfg.Share[name]
	symlink := strings.Trim(entry.Symlink, "/")

	linkName := paths.Join(cfg.ReleasesFolder, cfg.ReleaseTag, symlink)
	target := paths.RelativeTarget(linkName, paths.Join(cfg.SharedFolder, name))
	linkPath := paths.Join(cfg.ReleasePath, symlink)

	return SharedLink{
		Name:     name,
		LinkPath: linkPath,
		Target:   target,
		Resolved: paths.Resolve(linkPath, target),
		Mode:     entry.Mode,
	}
}

func sharedLinkCommand(link SharedLink) string {
	commands := []string{
		mkdirCommand(path.Dir(link.LinkPath)),
		"rm -rf " + q(link.LinkPath),
		mkdirCommand(link.Resolved),
		"ln -nfs " + q(link.Target) + " " + q(link.LinkPath),
	}
	if link.Mode != "" {
		commands = append(commands, "chmod "+q(link.Mode)+" "+q(link.Resolved))
	}
	return and(commands...)
}

func currentTarget(cfg *config.DeploymentConfig) string {
	return paths.RelativeTarget(cfg.CurrentReleaseLink, paths.Join(cfg.ReleasesFolder, cfg.ReleaseTag))
}

func cutoverCommand(cfg *config.DeploymentConfig) string {
	current := cfg.CurrentPath()
	target := currentTarget(cfg)
	if cfg.AtomicCutover {
		tmp := current + "." + cfg.ReleaseTag + ".tmp"
		return and(
			"ln -nfs "+q(target)+" "+q(tmp),
			"mv -Tf "+q(tmp)+" "+q(current),
		)
	}
	return and(
		"rm -rf "+q(current),
		"ln -nfs "+q(target)+" "+q(current),
	)
}

func rollbackCommand(cfg *config.DeploymentConfig) string {
	return "rm -rf " + q(paths.Join(cfg.DeployPath, cfg.ReleasesFolder, cfg.ReleaseTag))
}

func removeCommand(cfg *config.DeploymentConfig) string {
	return "rm -rf " + q(cfg.DeployPath)
}
