package handlers

import "github.com/xeipuuv/gojsonschema"

// submitTransformSchema validates the "submit transform" body (§6):
// video_url is the only required field, everything else defaults via
// config.Default*.
const submitTransformSchema = `{
	"type": "object",
	"required": ["video_url"],
	"properties": {
		"video_url": {"type": "string", "minLength": 1},
		"quality": {"type": "string"},
		"platform": {"type": "string"},
		"split": {"type": "boolean"},
		"denoise": {"type": "boolean"},
		"sharpen_strength": {"type": "number"},
		"brightness": {"type": "number"},
		"contrast": {"type": "number"},
		"saturation": {"type": "number"},
		"gamma": {"type": "number"},
		"add_subtitles": {"type": "boolean"},
		"subtitle_language": {"type": "string"},
		"audio_enhancement": {"type": "boolean"},
		"custom_bitrate": {"type": "integer"},
		"target_fps": {"type": "integer"}
	}
}`

// clipGenerationSchema validates the optional initial-clip-generation body.
const clipGenerationSchema = `{
	"type": "object",
	"required": ["video_url"],
	"properties": {
		"video_url": {"type": "string", "minLength": 1}
	}
}`

// viralSelectionSchema validates the optional viral-selection body: a list
// of already-cut clip URLs to grade.
const viralSelectionSchema = `{
	"type": "object",
	"required": ["clips"],
	"properties": {
		"clips": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["url"],
				"properties": {
					"url": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

var inputSchemas = map[string]string{
	"SubmitTransform": submitTransformSchema,
	"ClipGeneration":  clipGenerationSchema,
	"ViralSelection":  viralSelectionSchema,
}

func compileJsonSchemas() map[string]*gojsonschema.Schema {
	compiled := make(map[string]*gojsonschema.Schema, len(inputSchemas))
	for name, text := range inputSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(text))
		if err != nil {
			panic(err) // fix schema text
		}
		compiled[name] = schema
	}
	return compiled
}

// Run compile step on program start:
var inputSchemasCompiled = compileJsonSchemas()
