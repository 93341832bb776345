package imlab

// Negate returns the intensity inversion of img: every sample v becomes
// MaxSample - v. Shape and channel order are preserved.
func Negate(img Image) Image {
	out := img.Clone()
	row := img.Width * img.Channels
	parallelDo(0, img.Height, func(y int) {
		pix := out.Pix[y*row : (y+1)*row]
		for i, v := range pix {
			pix[i] = MaxSample - v
		}
	})
	return out
}
