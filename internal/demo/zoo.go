package demo

import (
	"context"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-com/com"
	"github.com/wippyai/wasm-com/factory"
	"github.com/wippyai/wasm-com/hresult"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/iid"
)

// Class identifiers.
var (
	CLSIDBowl                = iid.MustParse("2c3bd8a1-7f0e-4b8a-9d3e-5a1f6c0b9e24")
	CLSIDBritishShortHairCat = iid.MustParse("c5f45cbc-4439-418c-a9f9-05ac67525e43")
)

// DefaultBowlLevel is the food level of a new bowl.
const DefaultBowlLevel = 20

// Interface descriptors.
var (
	Food = iface.Define("IFood", IFoodIID, nil,
		iface.Method{Name: "consume-food", Params: []iface.Param{iface.Arg("amount", wit.U32{})}, Result: iface.HRESULT},
	)
	Animal = iface.Define("IAnimal", IAnimalIID, nil,
		iface.Method{Name: "eat", Params: []iface.Param{iface.PtrArg("food")}, Result: iface.HRESULT},
	)
	DomesticAnimal = iface.Define("IDomesticAnimal", IDomesticAnimalIID, Animal,
		iface.Method{Name: "train", Result: iface.HRESULT},
	)
	Cat = iface.Define("ICat", ICatIID, Animal,
		iface.Method{Name: "ignore-humans", Result: iface.HRESULT},
	)
)

// Interfaces returns the demo descriptors, parents first.
func Interfaces() []*iface.Descriptor {
	return []*iface.Descriptor{Food, Animal, DomesticAnimal, Cat}
}

// Definitions returns the Bowl and BritishShortHairCat class definitions.
func Definitions() ([]*com.Definition, error) {
	bowl, err := com.Define("Bowl").
		Implements(Food).
		Field("level", wit.U32{}).
		Default(uint32(DefaultBowlLevel)).
		Method(Food, "consume-food", consumeFood).
		Build()
	if err != nil {
		return nil, err
	}

	cat, err := com.Define("BritishShortHairCat").
		Implements(DomesticAnimal, Cat).
		Field("num-owners", wit.U32{}).
		Field("meals", wit.U32{}).
		Field("tricks", wit.U32{}).
		Default(uint32(1)).
		Method(Animal, "eat", eat).
		Method(DomesticAnimal, "train", train).
		Method(Cat, "ignore-humans", ignoreHumans).
		Build()
	if err != nil {
		return nil, err
	}
	return []*com.Definition{bowl, cat}, nil
}

func consumeFood(_ context.Context, obj *com.Object, params []uint64) []uint64 {
	amount := uint32(params[0])
	level, err := obj.Uint32("level")
	if err != nil {
		return []uint64{hresult.E_UNEXPECTED.Uint64()}
	}
	if level < amount {
		obj.Class().Space().Logger().Info("not enough food in bowl",
			zap.Uint32("bowl", obj.Base()),
			zap.Uint32("level", level),
			zap.Uint32("amount", amount))
		return []uint64{hresult.E_INVALIDARG.Uint64()}
	}
	if err := obj.SetUint32("level", level-amount); err != nil {
		return []uint64{hresult.E_UNEXPECTED.Uint64()}
	}
	return []uint64{hresult.S_OK.Uint64()}
}

func eat(ctx context.Context, obj *com.Object, params []uint64) []uint64 {
	addr := uint32(params[0])
	if addr == 0 {
		return []uint64{hresult.E_POINTER.Uint64()}
	}

	food, err := QueryIFood(ctx, obj.Class().Space().Ptr(addr))
	if err != nil {
		return []uint64{failure(err).Uint64()}
	}
	defer food.Release(ctx) //nolint:errcheck

	hr, err := food.ConsumeFood(ctx, 1)
	if err != nil {
		return []uint64{failure(err).Uint64()}
	}
	if hr.Failed() {
		return []uint64{hr.Uint64()}
	}
	if err := increment(obj, "meals"); err != nil {
		return []uint64{hresult.E_UNEXPECTED.Uint64()}
	}
	return []uint64{hresult.S_OK.Uint64()}
}

func train(_ context.Context, obj *com.Object, _ []uint64) []uint64 {
	if err := increment(obj, "tricks"); err != nil {
		return []uint64{hresult.E_UNEXPECTED.Uint64()}
	}
	obj.Class().Space().Logger().Debug("training", zap.Uint32("cat", obj.Base()))
	return []uint64{hresult.S_OK.Uint64()}
}

// ignoreHumans succeeds with S_FALSE when there is nobody to ignore.
func ignoreHumans(_ context.Context, obj *com.Object, _ []uint64) []uint64 {
	owners, err := obj.Uint32("num-owners")
	if err != nil {
		return []uint64{hresult.E_UNEXPECTED.Uint64()}
	}
	if owners == 0 {
		return []uint64{hresult.S_FALSE.Uint64()}
	}
	return []uint64{hresult.S_OK.Uint64()}
}

func increment(obj *com.Object, field string) error {
	v, err := obj.Uint32(field)
	if err != nil {
		return err
	}
	return obj.SetUint32(field, v+1)
}

func failure(err error) hresult.HRESULT {
	if hr, ok := err.(hresult.HRESULT); ok {
		return hr
	}
	return hresult.E_INVALIDARG
}

// Zoo is the demo classes registered in one space.
type Zoo struct {
	Space     *com.Space
	Bowl      *com.Class
	Cat       *com.Class
	Factories *factory.Registry
}

// Setup registers the demo classes in space and publishes them through a
// class factory registry.
func Setup(ctx context.Context, space *com.Space) (*Zoo, error) {
	defs, err := Definitions()
	if err != nil {
		return nil, err
	}
	classes := make([]*com.Class, len(defs))
	for i, def := range defs {
		if classes[i], err = space.Register(def); err != nil {
			return nil, err
		}
	}

	reg, err := factory.NewRegistry(space)
	if err != nil {
		return nil, err
	}
	z := &Zoo{Space: space, Bowl: classes[0], Cat: classes[1], Factories: reg}
	if err := reg.Register(ctx, CLSIDBowl, z.Bowl); err != nil {
		return nil, err
	}
	if err := reg.Register(ctx, CLSIDBritishShortHairCat, z.Cat); err != nil {
		return nil, err
	}
	return z, nil
}

// NewBowl activates a bowl and returns its IFood pointer.
func (z *Zoo) NewBowl(ctx context.Context) (IFood, error) {
	p, err := z.Factories.CreateInstance(ctx, CLSIDBowl, IFoodIID)
	if err != nil {
		return IFood{}, err
	}
	return NewIFood(p), nil
}

// NewCat activates a cat and returns its ICat pointer.
func (z *Zoo) NewCat(ctx context.Context) (ICat, error) {
	p, err := z.Factories.CreateInstance(ctx, CLSIDBritishShortHairCat, ICatIID)
	if err != nil {
		return ICat{}, err
	}
	return NewICat(p), nil
}

// Close releases the class factories.
func (z *Zoo) Close(ctx context.Context) error {
	return z.Factories.Close(ctx)
}
