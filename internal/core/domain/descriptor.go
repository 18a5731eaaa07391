package domain

// PackageFormat is a platform-native installable unit.
type PackageFormat string

const (
	FormatDeb     PackageFormat = "deb"
	FormatArch    PackageFormat = "arch"
	FormatMSI     PackageFormat = "msi"
	FormatAndroid PackageFormat = "android"
)

// PackageDescriptor is the format-specific record a packager produces.
// Version and Checksum must match the run's release version pair across
// every descriptor of one run; the propagator validates this.
type PackageDescriptor struct {
	Format       PackageFormat
	Name         string
	Version      string
	Architecture string
	Dependencies []string
	Checksum     string
	OutputPath   string
}
