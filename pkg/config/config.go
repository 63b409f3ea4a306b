// Package config holds the provisioner settings.
//
// Settings come from an optional YAML file and DPDKCTL_* environment
// variables, loaded with cleanenv. Every field has a default, so a host with
// no configuration at all gets the stock CentOS layout. Command line flags
// are applied on top by the cli package.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/kballard/go-shellquote"

	"github.com/NVIDIA/dpdk-provisioner/pkg/dpdk"
	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
	"github.com/NVIDIA/dpdk-provisioner/pkg/grub"
	"github.com/NVIDIA/dpdk-provisioner/pkg/hostexec"
	"github.com/NVIDIA/dpdk-provisioner/pkg/kmod"
	"github.com/NVIDIA/dpdk-provisioner/pkg/systemd"
)

// Config is the full provisioner configuration.
type Config struct {
	Grub    Grub    `yaml:"grub" env-prefix:"DPDKCTL_GRUB_"`
	Driver  Driver  `yaml:"driver" env-prefix:"DPDKCTL_DRIVER_"`
	Service Service `yaml:"service" env-prefix:"DPDKCTL_SERVICE_"`
	Install Install `yaml:"install" env-prefix:"DPDKCTL_INSTALL_"`

	// FailurePolicy is best-effort or strict.
	FailurePolicy string `yaml:"failurePolicy" env:"DPDKCTL_FAILURE_POLICY" env-default:"best-effort"`

	// NoReboot leaves a pending reboot to the operator.
	NoReboot bool `yaml:"noReboot" env:"DPDKCTL_NO_REBOOT"`

	// MetricsTextfile, when set, receives the run metrics in text format.
	MetricsTextfile string `yaml:"metricsTextfile" env:"DPDKCTL_METRICS_TEXTFILE"`

	LabelNode  bool   `yaml:"labelNode" env:"DPDKCTL_LABEL_NODE"`
	Kubeconfig string `yaml:"kubeconfig" env:"KUBECONFIG"`
}

type Grub struct {
	DefaultsPath      string `yaml:"defaultsPath" env:"DEFAULTS_PATH" env-default:"/etc/default/grub"`
	CmdlinePath       string `yaml:"cmdlinePath" env:"CMDLINE_PATH" env-default:"/proc/cmdline"`
	Key               string `yaml:"key" env:"KEY" env-default:"GRUB_CMDLINE_LINUX"`
	RegenerateCommand string `yaml:"regenerateCommand" env:"REGENERATE_COMMAND" env-default:"grub2-mkconfig -o /boot/efi/EFI/centos/grub.cfg"`
}

// RegenerateArgs splits RegenerateCommand with shell quoting rules.
func (g Grub) RegenerateArgs() ([]string, error) {
	args, err := shellquote.Split(g.RegenerateCommand)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidArgument, "invalid grub regenerate command", err)
	}
	if len(args) == 0 {
		return nil, cerrors.New(cerrors.ErrCodeInvalidArgument, "grub regenerate command is empty")
	}
	return args, nil
}

type Driver struct {
	Name           string `yaml:"name" env:"NAME" env-default:"vfio-pci"`
	ModulesLoadDir string `yaml:"modulesLoadDir" env:"MODULES_LOAD_DIR" env-default:"/etc/modules-load.d"`
}

type Service struct {
	UnitDir  string `yaml:"unitDir" env:"UNIT_DIR" env-default:"/etc/systemd/system"`
	UnitName string `yaml:"unitName" env:"UNIT_NAME" env-default:"dpdk.service"`
}

type Install struct {
	Method      string `yaml:"method" env:"METHOD" env-default:"source"`
	Repository  string `yaml:"repository" env:"REPOSITORY" env-default:"https://github.com/DPDK/dpdk.git"`
	SourceDir   string `yaml:"sourceDir" env:"SOURCE_DIR" env-default:"/tmp/dpdk"`
	DestDir     string `yaml:"destDir" env:"DEST_DIR" env-default:"/usr/local/bin/dpdk"`
	Interpreter string `yaml:"interpreter" env:"INTERPRETER" env-default:"/usr/bin/python3"`

	OSRelease      string   `yaml:"osRelease" env:"OS_RELEASE" env-default:"/etc/os-release"`
	Packages       []string `yaml:"packages" env:"PACKAGES" env-separator:","`
	PackageDevbind string   `yaml:"packageDevbind" env:"PACKAGE_DEVBIND" env-default:"/usr/bin/dpdk-devbind.py"`
}

// Default returns the built-in configuration without consulting the
// environment.
func Default() *Config {
	return &Config{
		Grub: Grub{
			DefaultsPath:      grub.DefaultConfigPath,
			CmdlinePath:       grub.DefaultCmdlinePath,
			Key:               grub.DefaultCmdlineKey,
			RegenerateCommand: shellquote.Join(grub.DefaultRegenerateCommand...),
		},
		Driver: Driver{
			Name:           kmod.DefaultDriver,
			ModulesLoadDir: kmod.DefaultModulesLoadDir,
		},
		Service: Service{
			UnitDir:  systemd.DefaultUnitDir,
			UnitName: systemd.DefaultUnitName,
		},
		Install: Install{
			Method:         string(dpdk.InstallSource),
			Repository:     dpdk.DefaultRepository,
			SourceDir:      dpdk.DefaultSourceDir,
			DestDir:        dpdk.DefaultDestDir,
			Interpreter:    dpdk.DefaultInterpreter,
			OSRelease:      dpdk.DefaultOSRelease,
			PackageDevbind: dpdk.DefaultPackageDevbind,
		},
		FailurePolicy: string(hostexec.PolicyBestEffort),
	}
}

// LoadEnvFile exports the variables of a dotenv file into the process
// environment. Variables already set are kept.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from path, or from the environment only when
// path is empty, and validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidArgument, "failed to load configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enum values and required paths.
func (c *Config) Validate() error {
	if _, err := hostexec.ParsePolicy(c.FailurePolicy); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidArgument, "invalid failurePolicy", err)
	}
	if _, err := dpdk.ParseInstallMethod(c.Install.Method); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidArgument, "invalid install.method", err)
	}
	if _, err := c.Grub.RegenerateArgs(); err != nil {
		return err
	}

	required := map[string]string{
		"grub.defaultsPath":      c.Grub.DefaultsPath,
		"grub.cmdlinePath":       c.Grub.CmdlinePath,
		"grub.key":               c.Grub.Key,
		"driver.name":            c.Driver.Name,
		"driver.modulesLoadDir":  c.Driver.ModulesLoadDir,
		"service.unitDir":        c.Service.UnitDir,
		"service.unitName":       c.Service.UnitName,
		"install.sourceDir":      c.Install.SourceDir,
		"install.destDir":        c.Install.DestDir,
		"install.osRelease":      c.Install.OSRelease,
		"install.packageDevbind": c.Install.PackageDevbind,
	}
	var missing []string
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return cerrors.New(cerrors.ErrCodeInvalidArgument,
			fmt.Sprintf("required settings are empty: %s", strings.Join(missing, ", ")))
	}
	return nil
}
