// Package idl reads and writes JSON interface definitions.
//
// A definition file declares interfaces and class shapes:
//
//	{
//	  "interfaces": [
//	    {
//	      "name": "IFood",
//	      "iid": "14f486bf-408d-43be-8a34-bbfa56980a37",
//	      "methods": [
//	        {"name": "consume-food", "params": [{"name": "amount", "type": "u32"}], "result": "hresult"}
//	      ]
//	    }
//	  ],
//	  "classes": [
//	    {"name": "Bowl", "clsid": "...", "implements": ["IFood"], "fields": [{"name": "level", "type": "u32"}]}
//	  ]
//	}
//
// "parent" defaults to IUnknown. Parents may be declared after their
// children. Scalar type names follow WIT (bool, u8 ... s64, f32, f64,
// char); "hresult" is s32 and "ptr" is a pointer-width address.
package idl
