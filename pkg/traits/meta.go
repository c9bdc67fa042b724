package traits

// Tagged carries free-form tags attached to the representation.
type Tagged struct {
	Tags []string `json:"tags"`
}

func (Tagged) ID() string   { return "ayon.meta.Tagged.v1" }
func (Tagged) Name() string { return "Tagged" }
func (Tagged) Description() string {
	return "Free-form tags attached to the representation"
}

func (Tagged) Validate(rep *Representation) error {
	return nil
}

// TemplatePath holds the path template the representation was or will
// be published to, together with the data used to resolve it.
type TemplatePath struct {
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

func (TemplatePath) ID() string   { return "ayon.meta.TemplatePath.v1" }
func (TemplatePath) Name() string { return "TemplatePath" }
func (TemplatePath) Description() string {
	return "Publish path template with its resolution data"
}

func (t TemplatePath) checkFields() error {
	if t.Template == "" {
		return &ValidationError{
			Scope:   t.Name(),
			Message: "template must not be empty",
		}
	}
	return nil
}

func (TemplatePath) Validate(rep *Representation) error {
	return nil
}

// Variant distinguishes different variants of the same product, such
// as "main" or "proxy".
type Variant struct {
	Variant string `json:"variant"`
}

func (Variant) ID() string   { return "ayon.meta.Variant.v1" }
func (Variant) Name() string { return "Variant" }
func (Variant) Description() string {
	return "Variant of the product this representation belongs to"
}

func (Variant) Validate(rep *Representation) error {
	return nil
}

// KeepOriginalLocation marks content that must stay in place instead
// of being transferred to the publish location.
type KeepOriginalLocation struct{}

func (KeepOriginalLocation) ID() string   { return "ayon.meta.KeepOriginalLocation.v1" }
func (KeepOriginalLocation) Name() string { return "KeepOriginalLocation" }
func (KeepOriginalLocation) Description() string {
	return "Content that is not moved to the publish location"
}

func (KeepOriginalLocation) Validate(rep *Representation) error {
	return nil
}

// KeepOriginalName marks content that keeps its source file name when
// published.
type KeepOriginalName struct{}

func (KeepOriginalName) ID() string   { return "ayon.meta.KeepOriginalName.v1" }
func (KeepOriginalName) Name() string { return "KeepOriginalName" }
func (KeepOriginalName) Description() string {
	return "Content that keeps its source file name"
}

func (KeepOriginalName) Validate(rep *Representation) error {
	return nil
}

// SourceApplication records the application that produced the content.
type SourceApplication struct {
	Application string `json:"application"`
	Variant     string `json:"variant,omitempty"`
	Version     string `json:"version,omitempty"`
	Platform    string `json:"platform,omitempty"`
	HostName    string `json:"host_name,omitempty"`
}

func (SourceApplication) ID() string   { return "ayon.meta.SourceApplication.v1" }
func (SourceApplication) Name() string { return "SourceApplication" }
func (SourceApplication) Description() string {
	return "Application that produced the content"
}

func (t SourceApplication) checkFields() error {
	if t.Application == "" {
		return &ValidationError{
			Scope:   t.Name(),
			Message: "application must not be empty",
		}
	}
	return nil
}

func (SourceApplication) Validate(rep *Representation) error {
	return nil
}

// IntendedUse hints what the representation should be used for when
// the format alone is ambiguous.
type IntendedUse struct {
	Use string `json:"use"`
}

func (IntendedUse) ID() string   { return "ayon.meta.IntendedUse.v1" }
func (IntendedUse) Name() string { return "IntendedUse" }
func (IntendedUse) Description() string {
	return "Intended use of the representation"
}

func (IntendedUse) Validate(rep *Representation) error {
	return nil
}

// ColorManaged declares the color space and config of image content.
type ColorManaged struct {
	ColorSpace string `json:"color_space"`
	Config     string `json:"config,omitempty"`
}

func (ColorManaged) ID() string   { return "ayon.color.ColorManaged.v1" }
func (ColorManaged) Name() string { return "ColorManaged" }
func (ColorManaged) Description() string {
	return "Color space and config of image content"
}

func (t ColorManaged) Validate(rep *Representation) error {
	if !ContainsTrait[Image](rep) {
		return &ValidationError{
			Scope:   t.Name(),
			Message: "color managed content requires the Image trait",
		}
	}
	return nil
}
