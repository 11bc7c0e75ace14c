package detect

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Letterbox handles the aspect preserving resize of a source frame into the
// square network input, and the inverse mapping of network coordinates back
// into source frame pixels.
type Letterbox struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the width to scale to
	destWidth int
	// destHeight is the height to scale to
	destHeight int
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
	// letterbox parameters used in scaling
	xPad  int
	yPad  int
	scale float64
	// resize dimensions
	resizeW int
	resizeH int
}

// NewLetterbox returns a Letterbox for scaling source frames to the network
// input tensor size.
func NewLetterbox(srcWidth, srcHeight, destWidth, destHeight int) *Letterbox {
	l := &Letterbox{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
	}

	// precalculate scaling dimensions
	l.preCalc()

	return l
}

// Close frees memory allocated during the resize process
func (l *Letterbox) Close() error {
	return l.tempMat.Close()
}

// preCalc the scaling factors for source and destination Mats
func (l *Letterbox) preCalc() {

	l.resizeW = l.destWidth
	l.resizeH = l.destHeight

	scaleW := float64(l.destWidth) / float64(l.srcWidth)
	scaleH := float64(l.destHeight) / float64(l.srcHeight)
	l.scale = scaleH

	if scaleW < scaleH {
		l.scale = scaleW
		l.resizeH = int(float64(l.srcHeight) * l.scale)
	} else {
		l.resizeW = int(float64(l.srcWidth) * l.scale)
	}

	l.yPad = (l.destHeight - l.resizeH) / 2 // padding height / 2
	l.xPad = (l.destWidth - l.resizeW) / 2  // padding width / 2
}

// Resize scales the source frame into the destination Mat whilst keeping
// image aspect, padding the border with the given color.
func (l *Letterbox) Resize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	gocv.Resize(src, &l.tempMat, image.Pt(l.resizeW, l.resizeH),
		0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(l.tempMat, dest, l.yPad, l.destHeight-l.resizeH-l.yPad,
		l.xPad, l.destWidth-l.resizeW-l.xPad, gocv.BorderConstant, color)
}

// ToSource maps a coordinate in network input space back into source frame
// pixels by inverting the pad and scale.
func (l *Letterbox) ToSource(x, y float64) (float64, float64) {
	return (x - float64(l.xPad)) / l.scale, (y - float64(l.yPad)) / l.scale
}

// ScaleFactor returns the scale factor used in the letterbox resize
func (l *Letterbox) ScaleFactor() float64 {
	return l.scale
}

// XPad returns the x padding used in the letterbox resize
func (l *Letterbox) XPad() int {
	return l.xPad
}

// YPad returns the y padding used in the letterbox resize
func (l *Letterbox) YPad() int {
	return l.yPad
}
