package constants

// IcoEmbeddedSizes are the square frame sizes packed into favicon.ico.
var IcoEmbeddedSizes = []int{16, 32, 48, 64, 128, 256}

// PublishedSizes are the square sizes written as standalone PNG files.
var PublishedSizes = []int{16, 32, 96, 256}

const (
	CanvasSize = 512

	// Auto-fit search for text icons.
	AutoFitStart    = 400
	AutoFitStep     = 20
	AutoFitMin      = 10
	AutoFitSafeArea = 450

	RoundedCornerRadius = 100

	// Vertical anchor for triangular icons, as a fraction of canvas height.
	TriangleAnchorRatio = 0.65

	// Largest raster upload decoded, in pixels (Pillow's MAX_IMAGE_PIXELS).
	MaxSourcePixels = 1024 * 1024 * 1024 / 4 / 3
)

const (
	IcoFileName      = "favicon.ico"
	PNGPrefix        = "favicon"
	ImageArchiveName = "favicons.zip"
	TextArchiveName  = "favicons_text.zip"
)

const (
	DefaultFontFamily      = "Roboto"
	DefaultTextColor       = "black"
	DefaultBackgroundColor = "white"
)
