// Package iconstyle resolves the effective render style of a deployment icon.
//
// A style is built in four layers, lowest precedence first: category
// defaults, per-subject catalog overrides, persisted JSON overrides and ad hoc
// overrides supplied by the caller. Every layer is an Overrides value whose
// nil fields leave the layer below untouched.
package iconstyle

// Color is an RGB triple with components in [0,1].
type Color [3]float64

// DefaultLayerOrder is the draw order of the optional icon layers.
var DefaultLayerOrder = []string{"gear_image", "brand_text", "model_text"}

// Style is a fully resolved render configuration. All fields hold concrete
// values.
type Style struct {
	Subject   string `json:"subject"`
	Category  string `json:"category"`
	ImagePath string `json:"image_path,omitempty"` // relative to the gear icon directory

	CircleColor       Color   `json:"circle_color"`
	CircleBorderWidth float64 `json:"circle_border_width"`
	CircleBorderColor Color   `json:"circle_border_color"`

	IDBoxHeight      float64 `json:"id_box_height"`
	IDBoxWidthRatio  float64 `json:"id_box_width_ratio"`
	IDBoxBorderWidth float64 `json:"id_box_border_width"`
	IDBoxYOffset     float64 `json:"id_box_y_offset"`
	IDFontSize       float64 `json:"id_font_size"`
	IDTextColor      Color   `json:"id_text_color"`

	ImgScaleRatio float64 `json:"img_scale_ratio"`
	ImgXOffset    float64 `json:"img_x_offset"`
	ImgYOffset    float64 `json:"img_y_offset"`

	BrandText     string  `json:"brand_text"`
	BrandFontSize float64 `json:"brand_font_size"`
	BrandXOffset  float64 `json:"brand_x_offset"`
	BrandYOffset  float64 `json:"brand_y_offset"`

	ModelText      string  `json:"model_text"`
	ModelFontSize  float64 `json:"model_font_size"`
	ModelXOffset   float64 `json:"model_x_offset"`
	ModelYOffset   float64 `json:"model_y_offset"`
	ModelUppercase bool    `json:"model_uppercase"`

	TextColor  Color    `json:"text_color"`
	NoImage    bool     `json:"no_image"`
	NoIDBox    bool     `json:"no_id_box"`
	LayerOrder []string `json:"layer_order"`
}

// Overrides is one merge layer. It doubles as the flat per-subject object of
// the persisted override file.
type Overrides struct {
	Category  *string `json:"category,omitempty" yaml:"category"`
	ImagePath *string `json:"image_path,omitempty" yaml:"image_path"`

	CircleColor       *Color   `json:"circle_color,omitempty" yaml:"circle_color"`
	CircleBorderWidth *float64 `json:"circle_border_width,omitempty" yaml:"circle_border_width"`
	CircleBorderColor *Color   `json:"circle_border_color,omitempty" yaml:"circle_border_color"`

	IDBoxHeight      *float64 `json:"id_box_height,omitempty" yaml:"id_box_height"`
	IDBoxWidthRatio  *float64 `json:"id_box_width_ratio,omitempty" yaml:"id_box_width_ratio"`
	IDBoxBorderWidth *float64 `json:"id_box_border_width,omitempty" yaml:"id_box_border_width"`
	IDBoxYOffset     *float64 `json:"id_box_y_offset,omitempty" yaml:"id_box_y_offset"`
	IDFontSize       *float64 `json:"id_font_size,omitempty" yaml:"id_font_size"`
	IDTextColor      *Color   `json:"id_text_color,omitempty" yaml:"id_text_color"`

	ImgScaleRatio *float64 `json:"img_scale_ratio,omitempty" yaml:"img_scale_ratio"`
	ImgXOffset    *float64 `json:"img_x_offset,omitempty" yaml:"img_x_offset"`
	ImgYOffset    *float64 `json:"img_y_offset,omitempty" yaml:"img_y_offset"`

	BrandText     *string  `json:"brand_text,omitempty" yaml:"brand_text"`
	BrandFontSize *float64 `json:"brand_font_size,omitempty" yaml:"brand_font_size"`
	BrandXOffset  *float64 `json:"brand_x_offset,omitempty" yaml:"brand_x_offset"`
	BrandYOffset  *float64 `json:"brand_y_offset,omitempty" yaml:"brand_y_offset"`

	ModelTextOverride *string  `json:"model_text_override,omitempty" yaml:"model_text_override"`
	ModelFontSize     *float64 `json:"model_font_size,omitempty" yaml:"model_font_size"`
	ModelXOffset      *float64 `json:"model_x_offset,omitempty" yaml:"model_x_offset"`
	ModelYOffset      *float64 `json:"model_y_offset,omitempty" yaml:"model_y_offset"`
	ModelUppercase    *bool    `json:"model_uppercase,omitempty" yaml:"model_uppercase"`

	TextColor  *Color   `json:"text_color,omitempty" yaml:"text_color"`
	NoImage    *bool    `json:"no_image,omitempty" yaml:"no_image"`
	NoIDBox    *bool    `json:"no_id_box,omitempty" yaml:"no_id_box"`
	LayerOrder []string `json:"layer_order,omitempty" yaml:"layer_order"`
}

// draft is a style under construction. The model text and the ID text color
// depend on other fields and are settled in finish.
type draft struct {
	Style
	modelOverride *string
	idTextColor   *Color
}

func setF(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setS(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setB(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setC(dst *Color, v *Color) {
	if v != nil {
		*dst = *v
	}
}

// apply merges one layer onto the draft.
func (d *draft) apply(o *Overrides) {
	if o == nil {
		return
	}
	s := &d.Style
	setS(&s.Category, o.Category)
	setS(&s.ImagePath, o.ImagePath)

	setC(&s.CircleColor, o.CircleColor)
	setF(&s.CircleBorderWidth, o.CircleBorderWidth)
	setC(&s.CircleBorderColor, o.CircleBorderColor)

	setF(&s.IDBoxHeight, o.IDBoxHeight)
	setF(&s.IDBoxWidthRatio, o.IDBoxWidthRatio)
	setF(&s.IDBoxBorderWidth, o.IDBoxBorderWidth)
	setF(&s.IDBoxYOffset, o.IDBoxYOffset)
	setF(&s.IDFontSize, o.IDFontSize)
	if o.IDTextColor != nil {
		c := *o.IDTextColor
		d.idTextColor = &c
	}

	setF(&s.ImgScaleRatio, o.ImgScaleRatio)
	setF(&s.ImgXOffset, o.ImgXOffset)
	setF(&s.ImgYOffset, o.ImgYOffset)

	setS(&s.BrandText, o.BrandText)
	setF(&s.BrandFontSize, o.BrandFontSize)
	setF(&s.BrandXOffset, o.BrandXOffset)
	setF(&s.BrandYOffset, o.BrandYOffset)

	if o.ModelTextOverride != nil {
		m := *o.ModelTextOverride
		d.modelOverride = &m
	}
	setF(&s.ModelFontSize, o.ModelFontSize)
	setF(&s.ModelXOffset, o.ModelXOffset)
	setF(&s.ModelYOffset, o.ModelYOffset)
	setB(&s.ModelUppercase, o.ModelUppercase)

	setC(&s.TextColor, o.TextColor)
	setB(&s.NoImage, o.NoImage)
	setB(&s.NoIDBox, o.NoIDBox)
	if len(o.LayerOrder) > 0 {
		s.LayerOrder = append([]string(nil), o.LayerOrder...)
	}
}

func (d *draft) finish(subject string) Style {
	s := d.Style
	s.Subject = subject

	if d.idTextColor != nil {
		s.IDTextColor = *d.idTextColor
	} else {
		s.IDTextColor = s.CircleColor
	}

	if d.modelOverride != nil {
		s.ModelText = *d.modelOverride
	} else {
		s.ModelText = ModelText(subject)
	}
	if s.ModelUppercase {
		s.ModelText = upper(s.ModelText)
	}

	if len(s.LayerOrder) == 0 {
		s.LayerOrder = append([]string(nil), DefaultLayerOrder...)
	}
	return s
}

// Merge layers the given overrides onto base in order and returns the result.
// The ID text color and model text are recomputed from the merged fields.
func Merge(base Style, layers ...*Overrides) Style {
	d := draft{Style: base}
	d.IDTextColor = Color{}
	for _, o := range layers {
		d.apply(o)
	}
	return d.finish(base.Subject)
}

// Full returns an Overrides value with every field of s set.
func Full(s Style) Overrides {
	s = cloneStyle(s)
	o := Overrides{
		Category:          &s.Category,
		CircleColor:       &s.CircleColor,
		CircleBorderWidth: &s.CircleBorderWidth,
		CircleBorderColor: &s.CircleBorderColor,
		IDBoxHeight:       &s.IDBoxHeight,
		IDBoxWidthRatio:   &s.IDBoxWidthRatio,
		IDBoxBorderWidth:  &s.IDBoxBorderWidth,
		IDBoxYOffset:      &s.IDBoxYOffset,
		IDFontSize:        &s.IDFontSize,
		IDTextColor:       &s.IDTextColor,
		ImgScaleRatio:     &s.ImgScaleRatio,
		ImgXOffset:        &s.ImgXOffset,
		ImgYOffset:        &s.ImgYOffset,
		BrandText:         &s.BrandText,
		BrandFontSize:     &s.BrandFontSize,
		BrandXOffset:      &s.BrandXOffset,
		BrandYOffset:      &s.BrandYOffset,
		ModelTextOverride: &s.ModelText,
		ModelFontSize:     &s.ModelFontSize,
		ModelXOffset:      &s.ModelXOffset,
		ModelYOffset:      &s.ModelYOffset,
		ModelUppercase:    &s.ModelUppercase,
		TextColor:         &s.TextColor,
		NoImage:           &s.NoImage,
		NoIDBox:           &s.NoIDBox,
		LayerOrder:        s.LayerOrder,
	}
	if s.ImagePath != "" {
		o.ImagePath = &s.ImagePath
	}
	return o
}

func cloneStyle(s Style) Style {
	s.LayerOrder = append([]string(nil), s.LayerOrder...)
	return s
}
