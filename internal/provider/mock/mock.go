package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/matcher"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

const DefaultDimension = 512

// Extractor implementa provider.Extractor para testes e desenvolvimento.
// Cada imagem produz exatamente uma face, com descritor derivado do SHA-256
// dos bytes: a mesma imagem sempre reconhece a si mesma.
type Extractor struct {
	dim int
}

// New cria um Extractor com a dimensão informada (0 usa DefaultDimension)
func New(dim int) *Extractor {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Extractor{dim: dim}
}

func (e *Extractor) Extract(ctx context.Context, image []byte) ([]domain.Detection, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	return []domain.Detection{
		{
			Descriptor: generateDescriptor(image, e.dim),
			BoundingBox: domain.BoundingBox{
				X:      10,
				Y:      10,
				Width:  80,
				Height: 80,
			},
			Confidence: 0.99,
		},
	}, nil
}

// generateDescriptor gera descritor determinístico a partir do hash da imagem.
// O hash é re-encadeado a cada 32 bytes para que dimensões maiores não
// repitam o mesmo padrão.
func generateDescriptor(image []byte, dim int) domain.Descriptor {
	descriptor := make(domain.Descriptor, dim)
	hash := sha256.Sum256(image)

	var counter [8]byte
	for i := 0; i < dim; i++ {
		idx := i % len(hash)
		if i > 0 && idx == 0 {
			binary.BigEndian.PutUint64(counter[:], uint64(i))
			hash = sha256.Sum256(append(hash[:], counter[:]...))
		}
		descriptor[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	return matcher.Normalize(descriptor)
}

var _ provider.Extractor = (*Extractor)(nil)
