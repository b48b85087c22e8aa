package filemgr

import "errors"

type EntityType string
type PictureType string

const (
	EntityUser           EntityType = "user"
	EntityProduct        EntityType = "product"
	EntityService        EntityType = "service"
	EntityBanner         EntityType = "banner"
	EntityLocation       EntityType = "location"
	EntityAddOn          EntityType = "addon"
	EntityAbout          EntityType = "about"
	EntityKYC            EntityType = "kyc"
	EntityServiceRequest EntityType = "servicerequest"
	EntityInvoice        EntityType = "invoice"

	PicPhoto    PictureType = "photo"
	PicThumb    PictureType = "thumb"
	PicDocument PictureType = "document"
	PicPDF      PictureType = "pdf"
)

var (
	AllowedExtensions = map[PictureType][]string{
		PicPhoto:    {".jpg", ".jpeg", ".png", ".gif", ".webp"},
		PicThumb:    {".jpg"},
		PicDocument: {".jpg", ".jpeg", ".png", ".pdf"},
		PicPDF:      {".pdf"},
	}

	AllowedMIMEs = map[PictureType][]string{
		PicPhoto:    {"image/jpeg", "image/png", "image/gif", "image/webp"},
		PicThumb:    {"image/jpeg"},
		PicDocument: {"image/jpeg", "image/png", "application/pdf"},
		PicPDF:      {"application/pdf"},
	}

	PictureSubfolders = map[PictureType]string{
		PicPhoto:    "photo",
		PicThumb:    "thumb",
		PicDocument: "docs",
		PicPDF:      "pdf",
	}

	ErrInvalidExtension = errors.New("invalid file extension")
	ErrInvalidMIME      = errors.New("invalid MIME type")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
	ErrMissingFile      = errors.New("missing required file")
)
