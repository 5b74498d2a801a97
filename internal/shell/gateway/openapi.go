package gateway

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// OpenAPI Specification
// =============================================================================

// BuildSpec produces the OpenAPI 3.0 document for the API surface the
// gateway exposes: its own control endpoints plus the proxied speech and
// image generation endpoints.
func BuildSpec(version string) *openapi3.T {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "AI Stack Gateway",
			Version:     version,
			Description: "Request routing and admission control for the text-to-speech and image generation services",
		},
		Servers: openapi3.Servers{
			&openapi3.Server{URL: "http://localhost:8080"},
		},
		Paths: &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	addCommonSchemas(spec)
	addGatewayPaths(spec)
	addSpeechPaths(spec)
	addImagePaths(spec)

	return spec
}

func addCommonSchemas(spec *openapi3.T) {
	spec.Components.Schemas["Error"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"status": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}},
				},
			},
		},
	}

	spec.Components.Schemas["UpstreamStatus"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"name": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"health": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"string"},
						Enum: []interface{}{"healthy", "degraded", "unhealthy", "unknown"},
					},
				},
				"latency_ms": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}},
				},
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"checked_at": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
				},
			},
		},
	}

	spec.Components.Schemas["Health"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"status": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"string"},
						Enum: []interface{}{"healthy", "degraded", "unhealthy", "unknown"},
					},
				},
				"version": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"upstreams": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"array"},
						Items: &openapi3.SchemaRef{
							Ref: "#/components/schemas/UpstreamStatus",
						},
					},
				},
				"in_flight": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						AdditionalProperties: openapi3.AdditionalProperties{
							Schema: &openapi3.SchemaRef{
								Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}},
							},
						},
					},
				},
			},
		},
	}

	spec.Components.Schemas["SpeechRequest"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"text": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"voice": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"speed": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"number"}},
				},
			},
			Required: []string{"text"},
		},
	}

	spec.Components.Schemas["SpeechResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"audio_url": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"filename": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"duration": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"number"}},
				},
			},
		},
	}

	spec.Components.Schemas["PromptResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"prompt_id": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"number": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}},
				},
			},
		},
	}
}

func addGatewayPaths(spec *openapi3.T) {
	spec.Paths.Set("/health", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getHealth",
			Summary:     "Aggregated gateway and upstream health",
			Tags:        []string{"gateway"},
			Responses: responses(map[string]string{
				"200": "Health",
			}),
		},
	})
}

func addSpeechPaths(spec *openapi3.T) {
	spec.Paths.Set("/api/tts/generate", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "generateSpeech",
			Summary:     "Synthesize speech from text",
			Description: "Subject to admission control. Returns 503 with Retry-After when the service is at generation capacity.",
			Tags:        []string{"speech"},
			RequestBody: jsonBody("SpeechRequest"),
			Responses: responsesWithErrors(map[string]string{
				"200": "SpeechResponse",
			}),
		},
	})

	spec.Paths.Set("/api/tts/audio/{filename}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getAudio",
			Summary:     "Download a generated audio file",
			Tags:        []string{"speech"},
			Parameters: openapi3.Parameters{
				pathParam("filename", "Audio file name returned by the generate endpoint"),
			},
			Responses: binaryResponse("audio/wav"),
		},
	})

	spec.Paths.Set("/api/tts/upload-voice", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "uploadVoice",
			Summary:     "Upload a reference voice sample",
			Tags:        []string{"speech"},
			Responses: responsesWithErrors(map[string]string{
				"200": "",
			}),
		},
	})

	spec.Paths.Set("/api/tts/voices", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listVoices",
			Summary:     "List available reference voices",
			Tags:        []string{"speech"},
			Responses: responsesWithErrors(map[string]string{
				"200": "",
			}),
		},
	})
}

func addImagePaths(spec *openapi3.T) {
	spec.Paths.Set("/api/comfy/prompt", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "queuePrompt",
			Summary:     "Queue an image generation workflow",
			Description: "Subject to admission control. Returns 503 with Retry-After when the service is at generation capacity.",
			Tags:        []string{"image"},
			Responses: responsesWithErrors(map[string]string{
				"200": "PromptResponse",
			}),
		},
	})

	spec.Paths.Set("/api/comfy/history/{prompt_id}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getHistory",
			Summary:     "Fetch workflow execution history",
			Tags:        []string{"image"},
			Parameters: openapi3.Parameters{
				pathParam("prompt_id", "Prompt identifier returned by the prompt endpoint"),
			},
			Responses: responsesWithErrors(map[string]string{
				"200": "",
			}),
		},
	})

	spec.Paths.Set("/api/comfy/view", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "viewImage",
			Summary:     "Download a generated image",
			Tags:        []string{"image"},
			Responses:   binaryResponse("image/png"),
		},
	})

	spec.Paths.Set("/api/comfy/system_stats", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getSystemStats",
			Summary:     "Read service and GPU statistics",
			Tags:        []string{"image"},
			Responses: responsesWithErrors(map[string]string{
				"200": "",
			}),
		},
	})
}

// =============================================================================
// Helpers
// =============================================================================

func jsonBody(schemaName string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{
						Ref: "#/components/schemas/" + schemaName,
					},
				},
			},
		},
	}
}

func pathParam(name, description string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:        name,
			In:          "path",
			Required:    true,
			Description: description,
			Schema: &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
			},
		},
	}
}

// responses builds a response set mapping status codes to schema names. An
// empty schema name produces a description-only response.
func responses(codes map[string]string) *openapi3.Responses {
	out := &openapi3.Responses{}
	for code, schemaName := range codes {
		desc := "Successful response"
		resp := &openapi3.Response{Description: &desc}
		if schemaName != "" {
			resp.Content = openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{
						Ref: "#/components/schemas/" + schemaName,
					},
				},
			}
		}
		out.Set(code, &openapi3.ResponseRef{Value: resp})
	}
	return out
}

// responsesWithErrors adds the shared 404 and 503 error responses.
func responsesWithErrors(codes map[string]string) *openapi3.Responses {
	out := responses(codes)

	notFound := "No route matches the request path"
	out.Set("404", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &notFound,
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{Ref: "#/components/schemas/Error"},
				},
			},
		},
	})

	unavailable := "Upstream unreachable or at generation capacity"
	out.Set("503", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &unavailable,
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{Ref: "#/components/schemas/Error"},
				},
			},
		},
	})

	return out
}

func binaryResponse(contentType string) *openapi3.Responses {
	desc := "File content"
	out := &openapi3.Responses{}
	out.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content: openapi3.Content{
				contentType: &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{
						Value: &openapi3.Schema{
							Type:   &openapi3.Types{"string"},
							Format: "binary",
						},
					},
				},
			},
		},
	})

	notFound := "File not found"
	out.Set("404", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &notFound,
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{Ref: "#/components/schemas/Error"},
				},
			},
		},
	})

	return out
}
