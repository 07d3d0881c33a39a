// ABOUTME: Partial form update sent with PATCH requests
// ABOUTME: Nil members are left unchanged by the server
package models

// FormPatch is a partial update of a form.
type FormPatch struct {
	Title    *string      `json:"title,omitempty"`
	Fields   *[]FormField `json:"fields,omitempty"`
	Location *Vec3        `json:"location,omitempty"`
	Rotation *Quat        `json:"rotation,omitempty"`
	Scale    *float64     `json:"scale,omitempty"`
	IsFinal  *bool        `json:"isFinal,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p FormPatch) IsEmpty() bool {
	return p.Title == nil && p.Fields == nil && p.Location == nil &&
		p.Rotation == nil && p.Scale == nil && p.IsFinal == nil
}
