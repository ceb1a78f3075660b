package floorplan

const (
	ColorGreen       = "green"
	ColorYellow      = "yellow"
	ColorRed         = "red"
	ColorTransparent = "transparent"
)

// Style is the visual encoding of a jacket status.
type Style struct {
	Color    string `json:"color"`
	Blinking bool   `json:"blinking"`
}

var statusStyles = map[Status]Style{
	StatusNormal:   {Color: ColorGreen},
	StatusWarning:  {Color: ColorYellow},
	StatusCritical: {Color: ColorRed, Blinking: true},
}

// DefaultStyle is used for status codes the encoder does not know.
var DefaultStyle = Style{Color: ColorTransparent}

// StyleFor maps a status to its style. Unknown codes get DefaultStyle.
func StyleFor(status Status) Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return DefaultStyle
}
